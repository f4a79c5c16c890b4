package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/terraincognita07/cyclecast/internal/db"
	"github.com/terraincognita07/cyclecast/internal/security"
	"github.com/terraincognita07/cyclecast/internal/services"
)

const temporaryPasscodeLength = 8

// RunResetPasscodeCommand replaces the API passcode with a freshly generated
// one and prints it to out. It is the recovery path for a forgotten passcode.
func RunResetPasscodeCommand(ctx context.Context, dbPath string, out io.Writer, log logrus.FieldLogger) error {
	database, err := db.OpenSQLite(dbPath, log)
	if err != nil {
		return fmt.Errorf("database init failed: %w", err)
	}
	sqlDB, err := database.DB()
	if err != nil {
		return fmt.Errorf("database handle: %w", err)
	}
	defer sqlDB.Close()

	passcode, err := generateTemporaryPasscode(temporaryPasscodeLength)
	if err != nil {
		return fmt.Errorf("generate temporary passcode: %w", err)
	}

	access := services.NewAccessService(db.NewKeyValueRepository(database))
	if err := access.ForceSetPasscode(ctx, passcode); err != nil {
		return fmt.Errorf("update passcode: %w", err)
	}

	fmt.Fprintln(out, "Passcode reset successful")
	fmt.Fprintf(out, "Temporary passcode: %s\n", passcode)
	fmt.Fprintln(out, "Change it with PUT /api/access/passcode.")
	return nil
}

func generateTemporaryPasscode(length int) (string, error) {
	if length < temporaryPasscodeLength {
		length = temporaryPasscodeLength
	}
	return security.GeneratePasscode(length)
}
