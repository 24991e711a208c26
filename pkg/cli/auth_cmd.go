package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"omnirelay/internal/gauth"
	"omnirelay/internal/omni"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage reporting-service and Google Drive credentials",
	}

	cmd.AddCommand(newAuthSetCmd())
	cmd.AddCommand(newAuthStatusCmd())
	cmd.AddCommand(newAuthDriveCmd())
	return cmd
}

func newAuthSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set",
		Short: "Store reporting-service session cookies in the active profile",
		Long: "Prompts for the SESSION and authToken cookie values captured from a " +
			"logged-in browser session and saves them to the active profile. " +
			"Leave a value empty to keep the stored one.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reader := bufio.NewReader(cmd.InOrStdin())
			session, err := readSecret(cmd, reader, "Session cookie: ")
			if err != nil {
				return err
			}
			authToken, err := readSecret(cmd, reader, "Auth token: ")
			if err != nil {
				return err
			}
			if session == "" && authToken == "" {
				return fmt.Errorf("nothing to save")
			}

			cfg, err := LoadUserConfig()
			if err != nil {
				cfg = &UserConfig{Profiles: make(map[string]Profile)}
			}
			profileName, _ := cmd.Root().PersistentFlags().GetString("profile")
			if profileName == "" {
				profileName = cfg.CurrentProfile
			}
			if profileName == "" {
				profileName = "default"
				cfg.CurrentProfile = profileName
			}
			if cfg.Profiles == nil {
				cfg.Profiles = make(map[string]Profile)
			}
			p := cfg.Profiles[profileName]
			if session != "" {
				p.Session = session
			}
			if authToken != "" {
				p.AuthToken = authToken
			}
			cfg.Profiles[profileName] = p
			if err := SaveUserConfig(cfg); err != nil {
				return fmt.Errorf("save config: %w", err)
			}

			if getOutputFormat(cmd) == "json" {
				return PrintJSON(os.Stdout, map[string]string{
					"status":  "ok",
					"profile": profileName,
					"path":    ConfigPath(),
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Credentials saved to profile %q in %s\n", profileName, ConfigPath())
			return nil
		},
	}
}

// readSecret reads one secret value: hidden terminal input when stdin is a
// TTY, a plain line read otherwise (pipes, tests).
func readSecret(cmd *cobra.Command, reader *bufio.Reader, prompt string) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), prompt)
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("read secret: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read secret: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func newAuthStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show credential status without contacting the service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}

			fields := map[string]interface{}{
				"session":    presence(cfg.Session),
				"auth_token": presence(cfg.AuthToken),
			}
			if cfg.AuthToken != "" {
				// The exp claim is read without verifying the signature;
				// only the server can decide actual session validity.
				if exp, err := omni.TokenExpiry(cfg.AuthToken); err == nil {
					fields["token_expires"] = exp.UTC().Format(time.RFC3339)
					fields["token_expired"] = !exp.After(time.Now())
				} else {
					fields["token_expires"] = "unknown"
				}
			}

			if gm, err := gauth.New(cfg.ClientSecretsFile, cfg.TokenFile); err != nil {
				fields["drive"] = "no client secrets (" + cfg.ClientSecretsFile + ")"
			} else if _, err := gm.CachedToken(); err != nil {
				fields["drive"] = "no cached token; run `omnirelay auth drive`"
			} else {
				fields["drive"] = "token cached at " + gm.TokenFile()
			}

			if getOutputFormat(cmd) == "json" {
				return PrintJSON(os.Stdout, fields)
			}
			PrintDetail(cmd.OutOrStdout(), fields)
			return nil
		},
	}
}

// presence describes a credential without echoing it.
func presence(v string) string {
	if v == "" {
		return "not set"
	}
	return "set (" + maskSecret(v) + ")"
}

func newAuthDriveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "drive",
		Short: "Run the Google Drive OAuth consent flow",
		Long: "Prints the consent URL, waits for the pasted authorization code and " +
			"caches the resulting token for the Drive relay.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			gm, err := gauth.New(cfg.ClientSecretsFile, cfg.TokenFile)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Open this URL in a browser and approve access:")
			fmt.Fprintln(out)
			fmt.Fprintln(out, "  "+gm.ConsentURL("state-token"))
			fmt.Fprintln(out)
			fmt.Fprint(out, "Paste the authorization code: ")

			reader := bufio.NewReader(cmd.InOrStdin())
			line, err := reader.ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("read authorization code: %w", err)
			}
			code := strings.TrimSpace(line)
			if code == "" {
				return fmt.Errorf("no authorization code given")
			}

			if _, err := gm.Exchange(cmd.Context(), code); err != nil {
				return err
			}
			fmt.Fprintf(out, "Token cached at %s\n", gm.TokenFile())
			return nil
		},
	}
}
