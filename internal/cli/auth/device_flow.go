package auth

import (
	"context"
	"fmt"

	"github.com/fatih/color"

	"github.com/BlankParticle/preview-pkg/internal/github"
)

// DeviceFlow runs the GitHub device flow for the given OAuth app and
// persists the obtained token to the credential file.
func DeviceFlow(ctx context.Context, gh *github.Client, clientID string, scopes []string) (*Credentials, error) {
	code, err := gh.RequestDeviceCode(ctx, clientID, scopes)
	if err != nil {
		return nil, fmt.Errorf("error requesting device code: %w", err)
	}

	fmt.Printf("Please go to %s and enter the code: %s\n",
		color.CyanString(code.VerificationURI),
		color.New(color.Bold).Sprint(code.UserCode))

	token, err := gh.PollAccessToken(ctx, clientID, code, func() {
		fmt.Print(".")
	})
	if err != nil {
		return nil, fmt.Errorf("error polling for access token: %w", err)
	}
	fmt.Println()

	creds := &Credentials{
		ClientID: clientID,
		Scopes:   scopes,
		Token:    token,
	}
	if err := Save(creds); err != nil {
		// The token is still usable in memory for this session; warn
		// instead of failing the whole flow.
		fmt.Printf("Warning: failed to save token to credential file: %v\n", err)
	}

	return creds, nil
}
