package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/mkrasovska/nutritrack/internal/client/models"
	"github.com/mkrasovska/nutritrack/internal/client/notify"
)

// vocabKinds in the order the goal form walks them.
var vocabKinds = []string{"types", "actions", "rubrics", "amounts", "portions", "frequencies"}

func (a *App) listGoals(ctx context.Context) {
	if !a.requireRole(models.RoleProfessional, models.RolePatient) {
		return
	}

	id := a.selectedPatientID(ctx)
	if id == "" {
		fmt.Println("Select a patient first")
		return
	}

	goals, err := a.queries.PatientGoals(ctx, id)
	if err != nil {
		log.Printf("error: %s", userMessage(err))
		return
	}
	for _, g := range goals {
		a.printGoal(ctx, &g)
	}

	// A patient viewing its own goals re-arms the local reminders.
	if a.role() == models.RolePatient {
		a.scheduleReminders(ctx, goals)
	}
}

func (a *App) printGoal(ctx context.Context, g *models.Goal) {
	ids := []string{g.TypeID, g.ActionID, g.RubricID, g.AmountID, g.PortionID, g.FrequencyID}
	labels := make([]string, 0, len(vocabKinds))
	for i, kind := range vocabKinds {
		labels = append(labels, a.vocabLabel(ctx, kind, ids[i]))
	}
	fmt.Printf("%s  %v  deadline %s\n", g.ID, labels, g.Deadline.Format("2006-01-02"))
}

func (a *App) vocabLabel(ctx context.Context, kind, id string) string {
	if id == "" {
		return "-"
	}
	items, err := a.queries.Vocab(ctx, kind)
	if err != nil {
		return id
	}
	for _, item := range items {
		if item.ID == id {
			return item.Label
		}
	}
	return id
}

// pickVocab renders one lookup collection as a numbered menu and returns the
// chosen item's id.
func (a *App) pickVocab(ctx context.Context, kind string) (string, error) {
	items, err := a.queries.Vocab(ctx, kind)
	if err != nil {
		return "", err
	}

	fmt.Printf("%s:\n", kind)
	for i, item := range items {
		fmt.Printf("  %d. %s\n", i+1, item.Label)
	}

	choice, err := GetSimpleText(a.reader, "Pick a number", os.Stdout)
	if err != nil {
		return "", err
	}
	n, err := strconv.Atoi(choice)
	if err != nil || n < 1 || n > len(items) {
		return "", fmt.Errorf("invalid choice %q", choice)
	}
	return items[n-1].ID, nil
}

// addGoal walks the vocabulary-driven goal form.
func (a *App) addGoal(ctx context.Context) {
	if !a.requireRole(models.RoleProfessional) {
		return
	}

	goal := &models.Goal{}
	targets := []*string{&goal.TypeID, &goal.ActionID, &goal.RubricID, &goal.AmountID, &goal.PortionID, &goal.FrequencyID}
	for i, kind := range vocabKinds {
		id, err := a.pickVocab(ctx, kind)
		if err != nil {
			log.Printf("error: %v", err)
			return
		}
		*targets[i] = id
	}

	start, err := a.readDate("Start date (YYYY-MM-DD)")
	if err != nil {
		log.Printf("error: %v", err)
		return
	}
	goal.StartDate = start

	deadline, err := a.readDate("Deadline (YYYY-MM-DD)")
	if err != nil {
		log.Printf("error: %v", err)
		return
	}
	goal.Deadline = deadline
	goal.NotificationTime = deadline.Add(9 * time.Hour)

	template, err := GetSimpleText(a.reader, "Save as template? (y/n)", os.Stdout)
	if err != nil {
		return
	}
	goal.Template = template == "y"

	created, err := a.api.CreateGoal(ctx, goal)
	if err != nil {
		log.Printf("error: %s", userMessage(err))
		return
	}
	fmt.Printf("Created goal %s\n", created.ID)

	if !created.Template {
		patientID := a.selectedPatientID(ctx)
		if patientID == "" {
			fmt.Println("No patient selected, goal left unassigned")
			return
		}
		result, err := a.api.AssignGoal(ctx, created.ID, []string{patientID})
		if err != nil || result.Failed > 0 {
			log.Printf("error attaching goal to patient")
			return
		}
		fmt.Println("Attached to selected patient")
	}
}

func (a *App) readDate(prompt string) (time.Time, error) {
	raw, err := GetSimpleText(a.reader, prompt, os.Stdout)
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse("2006-01-02", raw)
}

func (a *App) listTemplates(ctx context.Context) {
	if !a.requireRole(models.RoleProfessional) {
		return
	}

	templates, err := a.queries.GoalTemplates(ctx)
	if err != nil {
		log.Printf("error: %s", userMessage(err))
		return
	}
	for _, g := range templates {
		a.printGoal(ctx, &g)
	}
}

// assignTemplate attaches one template goal to many patients and reports the
// aggregate outcome, distinguishing full, partial and zero success.
func (a *App) assignTemplate(ctx context.Context, args []string) {
	if !a.requireRole(models.RoleProfessional) {
		return
	}
	if len(args) < 2 {
		fmt.Println("Usage: assign <goal-id> <patient-id> [patient-id ...]")
		return
	}

	result, err := a.api.AssignGoal(ctx, args[0], args[1:])
	if err != nil {
		log.Printf("error: %s", userMessage(err))
		return
	}

	succeeded := len(result.Outcomes) - result.Failed
	switch {
	case result.Failed == 0:
		fmt.Printf("Assigned to all %d patient(s)\n", succeeded)
	case succeeded == 0:
		fmt.Println("Assignment failed for every patient")
	default:
		fmt.Printf("Assigned to %d of %d patient(s):\n", succeeded, len(result.Outcomes))
		for _, o := range result.Outcomes {
			if o.Error != "" {
				fmt.Printf("  %s: %s\n", o.PatientID, o.Error)
			}
		}
	}
}

func (a *App) unassignGoal(ctx context.Context, args []string) {
	if !a.requireRole(models.RoleProfessional) {
		return
	}
	if len(args) != 1 {
		fmt.Println("Usage: unassign <goal-id>")
		return
	}

	patientID := a.selectedPatientID(ctx)
	if patientID == "" {
		fmt.Println("Select a patient first")
		return
	}

	if err := a.api.UnassignGoal(ctx, patientID, args[0]); err != nil {
		log.Printf("error: %s", userMessage(err))
		return
	}
	fmt.Println("Unassigned")
}

// scheduleReminders replaces the pending reminders with one per upcoming
// goal notification time.
func (a *App) scheduleReminders(ctx context.Context, goals []models.Goal) {
	a.scheduler.CancelAll()
	now := time.Now()
	for _, g := range goals {
		if g.NotificationTime.Before(now) {
			continue
		}
		a.scheduler.Schedule(notify.Reminder{
			Title: "Goal reminder",
			Body:  fmt.Sprintf("Goal %s is due %s", a.vocabLabel(ctx, "actions", g.ActionID), g.Deadline.Format("2006-01-02")),
			At:    g.NotificationTime,
		})
	}
}
