package cli

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/mkrasovska/nutritrack/internal/client/models"
	"github.com/mkrasovska/nutritrack/internal/client/session"
)

func (a *App) getStatus() string {
	s := a.session.Current()
	switch s.Phase {
	case session.PhaseValid:
		return fmt.Sprintf("(%s %s)", s.Credential.Email, s.Profile.Role)
	case session.PhasePendingVerification:
		return "(pending verification)"
	case session.PhaseInvalid:
		return "(session invalid)"
	default:
		return ""
	}
}

func (a *App) Root(ctx context.Context) {

	log.Println("Welcome to nutritrack CLI (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)

	a.restoreCredential(ctx)

	if !a.isSignedIn() {
		a.Login(ctx)
	}

	for {
		fmt.Printf("ntcli %s> ", a.getStatus())
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			a.printHelp()
		case "login":
			a.Login(ctx)
		case "logout":
			a.Logout(ctx)
		case "pros":
			a.listProfessionals(ctx)
		case "addpro":
			a.addProfessional(ctx)
		case "patients":
			a.listPatients(ctx)
		case "select":
			a.selectPatient(ctx, args)
		case "addpatient":
			a.addPatient(ctx)
		case "editpatient":
			a.editPatient(ctx)
		case "delpatient":
			a.deletePatient(ctx)
		case "goals":
			a.listGoals(ctx)
		case "addgoal":
			a.addGoal(ctx)
		case "templates":
			a.listTemplates(ctx)
		case "assign":
			a.assignTemplate(ctx, args)
		case "unassign":
			a.unassignGoal(ctx, args)
		case "transfer":
			a.transferPatients(ctx)
		case "comments":
			a.listComments(ctx)
		case "comment":
			a.postComment(ctx)
		case "attach":
			a.postAttachment(ctx)
		case "reminders":
			fmt.Printf("%d reminder(s) pending\n", a.scheduler.Pending())
		case "exit", "quit":
			fmt.Println("Bye!")
			return
		default:
			fmt.Println("Unknown command:", cmd)
		}
	}

}

func (a *App) printHelp() {
	if !a.isSignedIn() {
		fmt.Println("Available commands: login, exit")
		return
	}
	switch a.role() {
	case models.RoleAdmin:
		fmt.Println("Available commands: pros, addpro, logout, exit")
	case models.RoleProfessional:
		fmt.Println("Available commands: patients, select, addpatient, editpatient, delpatient,")
		fmt.Println("  goals, addgoal, templates, assign, unassign, transfer, comments, comment, attach, logout, exit")
	case models.RolePatient:
		fmt.Println("Available commands: goals, comments, comment, reminders, logout, exit")
	}
}

// requireRole checks the derived session allows the command.
func (a *App) requireRole(roles ...models.Role) bool {
	if !a.isSignedIn() {
		fmt.Println("Sign in first")
		return false
	}
	for _, role := range roles {
		if a.role() == role {
			return true
		}
	}
	fmt.Println("Not available for your role")
	return false
}
