package cli

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fastygo/storefront/domain"
)

func newLoginCmd(s *rootState) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "login <email-or-username>",
		Short: "Sign in and store the session locally",
		Long: `Sign in with an e-mail address or username. Without --password the
password is read from the first line of standard input.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return domain.ErrInvalidCredential
				}
				password = strings.TrimRight(line, "\r\n")
			}
			_, err := s.app.Session.Login(cmd.Context(), domain.Credentials{Login: args[0], Password: password})
			return err
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	return cmd
}

func newLogoutCmd(s *rootState) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s.app.Session.Logout(cmd.Context())
			return nil
		},
	}
}

func newWhoamiCmd(s *rootState) *cobra.Command {
	var offline bool
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := s.app
			user := app.Session.User()
			if !app.Session.IsAuthenticated() {
				return domain.ErrNotAuthenticated
			}
			if !offline {
				var err error
				if user, err = app.Profile.GetProfile(cmd.Context()); err != nil {
					return err
				}
			}
			printUser(s, user)
			return nil
		},
	}
	cmd.Flags().BoolVar(&offline, "offline", false, "use the stored profile without asking the server")
	return cmd
}

func printUser(s *rootState, user *domain.User) {
	p := s.app.Printer
	role := "customer"
	if user.IsAdmin {
		role = "admin"
	}
	p.Print("%s  %s", p.Bold(user.DisplayName()), p.Dim("("+role+")"))
	p.Print("  username: %s", user.Username)
	if user.Email != "" {
		p.Print("  e-mail:   %s", user.Email)
	}
	p.Print("  id:       %d", user.ID)
}

func newRegisterCmd(s *rootState) *cobra.Command {
	var reg domain.Registration
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a customer account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if reg.ConfirmPassword == "" {
				reg.ConfirmPassword = reg.Password
			}
			user, err := s.app.Profile.Register(cmd.Context(), reg)
			if err != nil {
				return err
			}
			s.app.Printer.Success("Account %s created. Sign in with 'storefront login %s'.", user.Username, user.Username)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&reg.Email, "email", "", "e-mail address")
	f.StringVar(&reg.Username, "username", "", "3 to 50 letters, digits or underscores")
	f.StringVar(&reg.FullName, "name", "", "full name")
	f.StringVar(&reg.Password, "password", "", "password with upper and lower case letters, a digit and a symbol")
	f.StringVar(&reg.ConfirmPassword, "confirm", "", "password confirmation (defaults to --password)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newProfileCmd(s *rootState) *cobra.Command {
	var upd domain.ProfileUpdate
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Update the signed-in account",
		Long:  `Update the e-mail, username or full name. Omitted fields are left unchanged.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := s.app.Profile.UpdateProfile(cmd.Context(), upd)
			if err != nil {
				return err
			}
			s.app.Printer.Success("Profile updated")
			printUser(s, user)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&upd.Email, "email", "", "new e-mail address")
	f.StringVar(&upd.Username, "username", "", "new username")
	f.StringVar(&upd.FullName, "name", "", "new full name")
	return cmd
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewError(domain.ErrCodeValidation, fmt.Sprintf("invalid id %q", raw))
	}
	return id, nil
}
