package i18n

import (
	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

var translations = map[language.Tag][]*goi18n.Message{
	language.English: {
		{ID: "summary.complete", Other: "Download complete."},
		{ID: "summary.complete_with_skipped", Other: "Download complete: {{.Succeeded}} downloaded, {{.Skipped}} already existed."},
		{ID: "summary.partial", Other: "Finished with errors: {{.Succeeded}} downloaded, {{.Skipped}} already existed, {{.Failed}} failed."},
		{ID: "summary.complete_with_errors", Other: "Download finished with unattributed errors: {{.Succeeded}} downloaded, {{.Skipped}} already existed. First error: {{.Error}}"},
		{ID: "summary.partial_with_errors", Other: "Finished with errors: {{.Succeeded}} downloaded, {{.Skipped}} already existed, {{.Failed}} failed. Other error: {{.Error}}"},
		{ID: "summary.all_failed", Other: "All downloads failed ({{.Failed}} items)."},
		{ID: "summary.backend_error", Other: "Download failed: {{.Error}}"},
		{ID: "summary.aborted", Other: "Download cancelled after {{.Succeeded}} downloaded, {{.Skipped}} already existed, {{.Failed}} failed."},
		{ID: "status.starting", Other: "Starting download..."},
		{ID: "status.aborting", Other: "Cancelling download..."},
		{ID: "status.item_done", Other: "Item finished."},
		{ID: "status.finishing", Other: "Finishing..."},
	},
	language.German: {
		{ID: "summary.complete", Other: "Download abgeschlossen."},
		{ID: "summary.complete_with_skipped", Other: "Download abgeschlossen: {{.Succeeded}} heruntergeladen, {{.Skipped}} bereits vorhanden."},
		{ID: "summary.partial", Other: "Mit Fehlern beendet: {{.Succeeded}} heruntergeladen, {{.Skipped}} bereits vorhanden, {{.Failed}} fehlgeschlagen."},
		{ID: "summary.complete_with_errors", Other: "Download mit nicht zugeordneten Fehlern beendet: {{.Succeeded}} heruntergeladen, {{.Skipped}} bereits vorhanden. Erster Fehler: {{.Error}}"},
		{ID: "summary.partial_with_errors", Other: "Mit Fehlern beendet: {{.Succeeded}} heruntergeladen, {{.Skipped}} bereits vorhanden, {{.Failed}} fehlgeschlagen. Weiterer Fehler: {{.Error}}"},
		{ID: "summary.all_failed", Other: "Alle Downloads sind fehlgeschlagen ({{.Failed}} Elemente)."},
		{ID: "summary.backend_error", Other: "Download fehlgeschlagen: {{.Error}}"},
		{ID: "summary.aborted", Other: "Download abgebrochen: {{.Succeeded}} heruntergeladen, {{.Skipped}} bereits vorhanden, {{.Failed}} fehlgeschlagen."},
		{ID: "status.starting", Other: "Download wird gestartet..."},
		{ID: "status.aborting", Other: "Download wird abgebrochen..."},
		{ID: "status.item_done", Other: "Element fertig."},
		{ID: "status.finishing", Other: "Wird abgeschlossen..."},
	},
	language.Spanish: {
		{ID: "summary.complete", Other: "Descarga completada."},
		{ID: "summary.complete_with_skipped", Other: "Descarga completada: {{.Succeeded}} descargados, {{.Skipped}} ya existían."},
		{ID: "summary.partial", Other: "Terminado con errores: {{.Succeeded}} descargados, {{.Skipped}} ya existían, {{.Failed}} fallidos."},
		{ID: "summary.complete_with_errors", Other: "Descarga terminada con errores no atribuidos: {{.Succeeded}} descargados, {{.Skipped}} ya existían. Primer error: {{.Error}}"},
		{ID: "summary.partial_with_errors", Other: "Terminado con errores: {{.Succeeded}} descargados, {{.Skipped}} ya existían, {{.Failed}} fallidos. Otro error: {{.Error}}"},
		{ID: "summary.all_failed", Other: "Todas las descargas fallaron ({{.Failed}} elementos)."},
		{ID: "summary.backend_error", Other: "La descarga falló: {{.Error}}"},
		{ID: "summary.aborted", Other: "Descarga cancelada: {{.Succeeded}} descargados, {{.Skipped}} ya existían, {{.Failed}} fallidos."},
		{ID: "status.starting", Other: "Iniciando descarga..."},
		{ID: "status.aborting", Other: "Cancelando descarga..."},
		{ID: "status.item_done", Other: "Elemento terminado."},
		{ID: "status.finishing", Other: "Finalizando..."},
	},
	language.French: {
		{ID: "summary.complete", Other: "Téléchargement terminé."},
		{ID: "summary.complete_with_skipped", Other: "Téléchargement terminé : {{.Succeeded}} téléchargés, {{.Skipped}} déjà présents."},
		{ID: "summary.partial", Other: "Terminé avec des erreurs : {{.Succeeded}} téléchargés, {{.Skipped}} déjà présents, {{.Failed}} en échec."},
		{ID: "summary.complete_with_errors", Other: "Téléchargement terminé avec des erreurs non attribuées : {{.Succeeded}} téléchargés, {{.Skipped}} déjà présents. Première erreur : {{.Error}}"},
		{ID: "summary.partial_with_errors", Other: "Terminé avec des erreurs : {{.Succeeded}} téléchargés, {{.Skipped}} déjà présents, {{.Failed}} en échec. Autre erreur : {{.Error}}"},
		{ID: "summary.all_failed", Other: "Tous les téléchargements ont échoué ({{.Failed}} éléments)."},
		{ID: "summary.backend_error", Other: "Échec du téléchargement : {{.Error}}"},
		{ID: "summary.aborted", Other: "Téléchargement annulé : {{.Succeeded}} téléchargés, {{.Skipped}} déjà présents, {{.Failed}} en échec."},
		{ID: "status.starting", Other: "Démarrage du téléchargement..."},
		{ID: "status.aborting", Other: "Annulation du téléchargement..."},
		{ID: "status.item_done", Other: "Élément terminé."},
		{ID: "status.finishing", Other: "Finalisation..."},
	},
}
