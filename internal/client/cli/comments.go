package cli

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/mkrasovska/nutritrack/internal/client/models"
)

func (a *App) listComments(ctx context.Context) {
	if !a.requireRole(models.RoleProfessional, models.RolePatient) {
		return
	}

	id := a.selectedPatientID(ctx)
	if id == "" {
		fmt.Println("Select a patient first")
		return
	}

	list, err := a.queries.Comments(ctx, id)
	if err != nil {
		log.Printf("error: %s", userMessage(err))
		return
	}
	for _, c := range list {
		attachment := ""
		if c.AttachmentKey != "" {
			attachment = " [attachment]"
		}
		fmt.Printf("[%s] %s: %s%s\n", c.CreatedAt.Format("2006-01-02 15:04"), c.SenderRole, c.Text, attachment)
	}
}

func (a *App) postComment(ctx context.Context) {
	if !a.requireRole(models.RoleProfessional, models.RolePatient) {
		return
	}

	id := a.selectedPatientID(ctx)
	if id == "" {
		fmt.Println("Select a patient first")
		return
	}

	text, err := GetSimpleText(a.reader, "Message", os.Stdout)
	if err != nil || text == "" {
		return
	}

	if _, err := a.api.PostComment(ctx, id, text, ""); err != nil {
		log.Printf("error: %s", userMessage(err))
		return
	}
	fmt.Println("Posted")
}

// postAttachment uploads a file through a presigned URL and posts a comment
// carrying the storage key. The upload itself is left to the user's HTTP
// tooling here; the CLI prints the presigned PUT URL and posts the key.
func (a *App) postAttachment(ctx context.Context) {
	if !a.requireRole(models.RoleProfessional, models.RolePatient) {
		return
	}

	id := a.selectedPatientID(ctx)
	if id == "" {
		fmt.Println("Select a patient first")
		return
	}

	key, url, err := a.api.AttachmentUploadURL(ctx)
	if err != nil {
		log.Printf("error: %s", userMessage(err))
		return
	}
	fmt.Printf("Upload your file with: curl -X PUT --upload-file <file> '%s'\n", url)

	text, err := GetSimpleText(a.reader, "Message (optional)", os.Stdout)
	if err != nil {
		return
	}

	if _, err := a.api.PostComment(ctx, id, text, key); err != nil {
		log.Printf("error: %s", userMessage(err))
		return
	}
	fmt.Println("Posted with attachment")
}
