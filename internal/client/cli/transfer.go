package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/mkrasovska/nutritrack/internal/client/models"
)

// transferPatients moves selected patients to another professional and
// reports the per-patient outcomes; a failed patient never blocks the rest.
func (a *App) transferPatients(ctx context.Context) {
	if !a.requireRole(models.RoleProfessional) {
		return
	}

	target, err := GetSimpleText(a.reader, "Target professional id", os.Stdout)
	if err != nil || target == "" {
		return
	}

	raw, err := GetSimpleText(a.reader, "Patient ids (space-separated)", os.Stdout)
	if err != nil {
		return
	}
	patientIDs := strings.Fields(raw)
	if len(patientIDs) == 0 {
		fmt.Println("Nothing to transfer")
		return
	}

	outcomes, err := a.api.TransferPatients(ctx, target, patientIDs)
	if err != nil {
		log.Printf("error: %s", userMessage(err))
		return
	}

	for _, o := range outcomes {
		if o.Error != "" {
			fmt.Printf("  %s: FAILED (%s)\n", o.PatientID, o.Error)
		} else {
			fmt.Printf("  %s: moved (new id %s)\n", o.PatientID, o.NewID)
		}
	}
}
