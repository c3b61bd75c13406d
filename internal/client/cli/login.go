package cli

import (
	"context"
	"errors"
	"log"
	"os"

	"github.com/mkrasovska/nutritrack/internal/client/localstore"
	"github.com/mkrasovska/nutritrack/internal/client/session"
	"github.com/mkrasovska/nutritrack/internal/common"
)

// userMessage maps the error taxonomy onto the fixed user-facing messages.
// Anything outside the taxonomy collapses into the generic failure line.
func userMessage(err error) string {
	switch {
	case errors.Is(err, common.ErrorMissingUser), errors.Is(err, common.ErrorInvalidCredentials):
		return "Incorrect email or password"
	case errors.Is(err, common.ErrorMissingData):
		return "Account data is incomplete, contact your professional"
	default:
		return "Something went wrong, try again later"
	}
}

func (a *App) Login(ctx context.Context) {

	email, err := GetSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		log.Printf("error: %v", err)
		return
	}

	password, err := GetPassword(os.Stdout)
	if err != nil {
		log.Printf("error: %v", err)
		return
	}
	defer common.WipeByteArray(password)

	cred, err := a.api.SignIn(ctx, email, password)
	if err != nil {
		log.Printf("Login unsuccessful: %s", userMessage(err))
		return
	}

	s := a.session.Establish(ctx, cred)
	switch s.Phase {
	case session.PhaseValid:
		log.Printf("Signed in as %s (%s)", cred.Email, s.Profile.Role)
		a.persistCredential(ctx, cred)
		a.startWatches(ctx)
	case session.PhasePendingVerification:
		log.Printf("Account not verified yet")
	case session.PhaseInvalid:
		log.Printf("Session invalid: %s", userMessage(s.Err))
	}
}

func (a *App) Logout(ctx context.Context) {
	a.stopWatches()
	a.scheduler.CancelAll()
	a.queries.InvalidateAll()

	if err := a.api.SignOut(ctx); err != nil {
		log.Printf("error signing out: %v", err)
	}
	if err := a.store.Delete(ctx, localstore.KeyCredential); err != nil {
		log.Printf("error clearing stored credential: %v", err)
	}
	a.session.SignOut()
	log.Println("Signed out")
}
