package cli

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/mkrasovska/nutritrack/internal/client/api"
	"github.com/mkrasovska/nutritrack/internal/client/localstore"
	"github.com/mkrasovska/nutritrack/internal/client/models"
	"github.com/mkrasovska/nutritrack/internal/common"
)

func (a *App) listProfessionals(ctx context.Context) {
	if !a.requireRole(models.RoleAdmin) {
		return
	}

	list, err := a.queries.Professionals(ctx)
	if err != nil {
		log.Printf("error: %s", userMessage(err))
		return
	}
	for _, p := range list {
		fmt.Printf("%s  %s %s <%s>\n", p.ID, p.Name, p.Surname, p.Email)
	}
}

func (a *App) addProfessional(ctx context.Context) {
	if !a.requireRole(models.RoleAdmin) {
		return
	}

	req := api.ProvisionProfessionalRequest{}
	var err error
	if req.Email, err = GetSimpleText(a.reader, "Email", os.Stdout); err != nil {
		return
	}
	if req.Name, err = GetSimpleText(a.reader, "Name", os.Stdout); err != nil {
		return
	}
	if req.Surname, err = GetSimpleText(a.reader, "Surname", os.Stdout); err != nil {
		return
	}
	if req.Phone, err = GetSimpleText(a.reader, "Phone", os.Stdout); err != nil {
		return
	}

	tempPassword, err := GetPassword(os.Stdout)
	if err != nil {
		return
	}
	req.TempPassword = string(tempPassword)
	common.WipeByteArray(tempPassword)

	p, err := a.api.ProvisionProfessional(ctx, req)
	if err != nil {
		log.Printf("error: %s", userMessage(err))
		return
	}
	fmt.Printf("Created professional %s\n", p.ID)
}

func (a *App) listPatients(ctx context.Context) {
	if !a.requireRole(models.RoleProfessional) {
		return
	}

	list, err := a.queries.Patients(ctx)
	if err != nil {
		log.Printf("error: %s", userMessage(err))
		return
	}
	selected := a.selectedPatientID(ctx)
	for _, p := range list {
		marker := " "
		if p.ID == selected {
			marker = "*"
		}
		fmt.Printf("%s %s  %s %s <%s>  goals: %d\n", marker, p.ID, p.Name, p.Surname, p.Email, len(p.GoalIDs))
	}
}

// selectedPatientID returns the patient remembered in the local store, or ""
// for professionals with nothing selected. Patients are always their own
// selection.
func (a *App) selectedPatientID(ctx context.Context) string {
	s := a.session.Current()
	if s.Profile != nil && s.Profile.Patient != nil {
		return s.Profile.Patient.ID
	}
	raw, err := a.store.Get(ctx, localstore.KeySelectedPatient)
	if err != nil {
		return ""
	}
	return string(raw)
}

func (a *App) selectPatient(ctx context.Context, args []string) {
	if !a.requireRole(models.RoleProfessional) {
		return
	}
	if len(args) != 1 {
		fmt.Println("Usage: select <patient-id>")
		return
	}

	p, err := a.queries.Patient(ctx, args[0])
	if err != nil {
		log.Printf("error: %s", userMessage(err))
		return
	}
	if err := a.store.Set(ctx, localstore.KeySelectedPatient, []byte(p.ID)); err != nil {
		log.Printf("error remembering selection: %v", err)
		return
	}
	fmt.Printf("Selected %s %s\n", p.Name, p.Surname)
}

func (a *App) addPatient(ctx context.Context) {
	if !a.requireRole(models.RoleProfessional) {
		return
	}

	req := api.ProvisionPatientRequest{}
	var err error
	if req.Email, err = GetSimpleText(a.reader, "Email", os.Stdout); err != nil {
		return
	}
	if req.Name, err = GetSimpleText(a.reader, "Name", os.Stdout); err != nil {
		return
	}
	if req.Surname, err = GetSimpleText(a.reader, "Surname", os.Stdout); err != nil {
		return
	}
	if req.Phone, err = GetSimpleText(a.reader, "Phone", os.Stdout); err != nil {
		return
	}
	if req.BirthDate, err = GetSimpleText(a.reader, "Birth date (YYYY-MM-DD)", os.Stdout); err != nil {
		return
	}

	tempPassword, err := GetPassword(os.Stdout)
	if err != nil {
		return
	}
	req.TempPassword = string(tempPassword)
	common.WipeByteArray(tempPassword)

	p, err := a.api.ProvisionPatient(ctx, req)
	if err != nil {
		log.Printf("error: %s", userMessage(err))
		return
	}
	fmt.Printf("Created patient %s\n", p.ID)
}

func (a *App) editPatient(ctx context.Context) {
	if !a.requireRole(models.RoleProfessional) {
		return
	}

	id := a.selectedPatientID(ctx)
	if id == "" {
		fmt.Println("Select a patient first")
		return
	}

	current, err := a.queries.Patient(ctx, id)
	if err != nil {
		log.Printf("error: %s", userMessage(err))
		return
	}

	req := api.UpdatePatientRequest{
		Name:      current.Name,
		Surname:   current.Surname,
		Phone:     current.Phone,
		BirthDate: current.BirthDate,
	}
	if v, err := GetSimpleText(a.reader, fmt.Sprintf("Name [%s]", current.Name), os.Stdout); err == nil && v != "" {
		req.Name = v
	}
	if v, err := GetSimpleText(a.reader, fmt.Sprintf("Surname [%s]", current.Surname), os.Stdout); err == nil && v != "" {
		req.Surname = v
	}
	if v, err := GetSimpleText(a.reader, fmt.Sprintf("Phone [%s]", current.Phone), os.Stdout); err == nil && v != "" {
		req.Phone = v
	}
	if v, err := GetSimpleText(a.reader, fmt.Sprintf("Birth date [%s]", current.BirthDate), os.Stdout); err == nil && v != "" {
		req.BirthDate = v
	}

	if _, err := a.api.UpdatePatient(ctx, id, req); err != nil {
		log.Printf("error: %s", userMessage(err))
		return
	}
	fmt.Println("Updated")
}

func (a *App) deletePatient(ctx context.Context) {
	if !a.requireRole(models.RoleProfessional) {
		return
	}

	id := a.selectedPatientID(ctx)
	if id == "" {
		fmt.Println("Select a patient first")
		return
	}

	confirm, err := GetSimpleText(a.reader, "Type 'yes' to delete the selected patient", os.Stdout)
	if err != nil || confirm != "yes" {
		fmt.Println("Cancelled")
		return
	}

	if err := a.api.DeletePatient(ctx, id); err != nil {
		log.Printf("error: %s", userMessage(err))
		return
	}
	_ = a.store.Delete(ctx, localstore.KeySelectedPatient)
	fmt.Println("Deleted")
}
