package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/csvintake/internal/config"
	"github.com/JonMunkholm/csvintake/internal/mailer"
)

func (a *App) sendEmailCommand() *cobra.Command {
	var subject string

	cmd := &cobra.Command{
		Use:   "send-email <recipient_email> <message>",
		Short: "Send a templated message through the mail relay",
		Long: "Send a templated message through the mail relay.\n\n" +
			"Credentials are read from GMAIL_USER and GMAIL_APP_PASS.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) < 2 {
				fmt.Fprintln(a.Stderr, "Usage: csvintake send-email <recipient_email> <message>")
				return errExit1
			}

			mailCfg, err := config.LoadMail()
			if err != nil {
				fmt.Fprintf(a.Stderr, "Fatal: %v.\n", err)
				return errExit1
			}

			tmpl := mailer.DefaultTemplate(mailCfg.SenderName)
			if subject != "" {
				tmpl.Subject = subject
			}

			sender := a.NewSender(mailCfg, tmpl, a.logger)
			err = sender.Send(cmd.Context(), mailer.Message{To: args[0], Body: args[1]})
			switch {
			case err == nil:
				fmt.Fprintln(a.Stdout, "Email sent successfully.")
				return nil
			case errors.Is(err, mailer.ErrAuthentication):
				fmt.Fprintln(a.Stderr, "Authentication error: Check your GMAIL_USER and GMAIL_APP_PASS in the .env file.")
			default:
				fmt.Fprintf(a.Stderr, "An error occurred while sending email: %v\n", err)
			}
			return errExit1
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "Subject line (default \"Message from <MAIL_SENDER_NAME>\")")
	return cmd
}
