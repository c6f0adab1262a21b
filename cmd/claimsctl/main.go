// Command claimsctl drives the claims client from a terminal: it stores a
// session, lists and edits claims, and can run the in-memory dev service.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	client "github.com/claimsure/claims-client"
	"github.com/claimsure/claims-client/internal/config"
	"github.com/claimsure/claims-client/internal/devservice"
	"github.com/claimsure/claims-client/internal/logger"
)

const commandTimeout = 30 * time.Second

type rootOptions struct {
	baseURL string
	debug   bool
	log     zerolog.Logger
}

func main() {
	cmd := NewRootCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", client.UserMessage(err))
		os.Exit(1)
	}
}

// NewRootCmd constructs the root CLI command; exposed for unit testing.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:           "claimsctl",
		Short:         "claimsctl submits and manages insurance claims",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			opts.log = logger.Console(opts.debug)
			if opts.debug {
				opts.log.Debug().Msg("debug logging enabled")
			}
		},
	}
	rootCmd.PersistentFlags().StringVar(&opts.baseURL, "base-url", "", "Claims service URL (default $CLAIMSURE_BASE_URL)")
	rootCmd.PersistentFlags().BoolVarP(&opts.debug, "debug", "d", false, "Enable verbose debug output")

	rootCmd.AddCommand(newSessionCmd(opts))
	rootCmd.AddCommand(newClaimsCmd(opts))
	rootCmd.AddCommand(newServeDevCmd(opts))
	return rootCmd
}

// withClient opens a client from the environment, runs fn and closes it.
func withClient(cmd *cobra.Command, opts *rootOptions, fn func(ctx context.Context, c *client.Client) error) error {
	cfg, err := config.New()
	if err != nil {
		return err
	}
	if opts.baseURL != "" {
		cfg.BaseURL = opts.baseURL
		if err := cfg.ResolveDefaults(); err != nil {
			return err
		}
	}
	if opts.debug {
		cfg.Debug = true
	}
	c, err := client.NewFromConfig(cfg, client.WithLogger(opts.log))
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()
	return fn(ctx, c)
}

func newSessionCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "session", Short: "Manage the stored session"}

	var userID string
	var tokens client.TokenBundle
	set := &cobra.Command{
		Use:   "set",
		Short: "Store the user ID and tokens returned by login",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, opts, func(ctx context.Context, c *client.Client) error {
				if err := c.SetSession(ctx, userID, tokens); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Session stored for %s\n", userID)
				return nil
			})
		},
	}
	set.Flags().StringVar(&userID, "user-id", "", "User ID (required)")
	set.Flags().StringVar(&tokens.AccessToken, "access-token", "", "Access token")
	set.Flags().StringVar(&tokens.IDToken, "id-token", "", "ID token")
	set.Flags().StringVar(&tokens.RefreshToken, "refresh-token", "", "Refresh token")
	_ = set.MarkFlagRequired("user-id")

	show := &cobra.Command{
		Use:   "show",
		Short: "Show the session user and token expiry",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, opts, func(ctx context.Context, c *client.Client) error {
				st, err := c.Session().Status(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if !st.Authorized {
					fmt.Fprintln(out, "Not logged in")
					return nil
				}
				fmt.Fprintf(out, "User: %s\n", st.UserID)
				if !st.ExpiresAt.IsZero() {
					state := "valid"
					if st.Expired {
						state = "expired"
					}
					fmt.Fprintf(out, "Token expires: %s (%s)\n", st.ExpiresAt.Local().Format(time.RFC1123), state)
				}
				return nil
			})
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Log out",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, opts, func(ctx context.Context, c *client.Client) error {
				if err := c.Logout(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
				return nil
			})
		},
	}

	cmd.AddCommand(set, show, clearCmd)
	return cmd
}

func newClaimsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "claims", Short: "List, submit, edit and delete claims"}
	cmd.AddCommand(newListCmd(opts), newDueCmd(opts), newSubmitCmd(opts), newUpdateCmd(opts), newDeleteCmd(opts))
	return cmd
}

func newListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the claims of the session user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, opts, func(ctx context.Context, c *client.Client) error {
				v := c.NewManageView()
				if err := v.Load(ctx); err != nil {
					return err
				}
				printClaims(cmd.OutOrStdout(), v.Claims())
				return nil
			})
		},
	}
}

func printClaims(w io.Writer, claims []client.Claim) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tTYPE\tSUBMITTED\tDUE\tFILE")
	for _, c := range claims {
		file := "-"
		if c.HasFile() {
			file = c.FileURL
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			c.ID, c.Title, c.Type, formatDate(c.SubmissionDate), formatDate(c.DueDate), file)
	}
	_ = tw.Flush()
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02")
}

func newDueCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "due",
		Short: "Count claims due in the next 30 days",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, opts, func(ctx context.Context, c *client.Client) error {
				n, err := c.NewManageView().LoadDueSoonCount(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Claims due in the next 30 days: %d\n", n)
				return nil
			})
		},
	}
}

func newSubmitCmd(opts *rootOptions) *cobra.Command {
	var title, claimType, details, filePath string
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a new claim",
		RunE: func(cmd *cobra.Command, args []string) error {
			typ, err := client.ParseClaimType(claimType)
			if err != nil {
				return err
			}
			req := client.SubmitClaimRequest{Title: title, Type: typ, Details: details}
			if filePath != "" {
				att, err := client.OpenAttachment(filePath)
				if err != nil {
					return err
				}
				defer func() { _ = att.Close() }()
				req.File = att
			}
			return withClient(cmd, opts, func(ctx context.Context, c *client.Client) error {
				resp, err := c.SubmitClaim(ctx, req)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Claim submitted: %s\n", resp.ClaimID)
				if resp.FileURL != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "File: %s\n", resp.FileURL)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Claim title, at most 20 characters (required)")
	cmd.Flags().StringVar(&claimType, "type", "", "Claim type: medical, life, car, home or property (required)")
	cmd.Flags().StringVar(&details, "details", "", "Claim details (required)")
	cmd.Flags().StringVar(&filePath, "file", "", "Document to attach, up to 50MB")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("details")
	return cmd
}

func newUpdateCmd(opts *rootOptions) *cobra.Command {
	var claimID, title, claimType, details string
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Change the title, type or details of a claim",
		RunE: func(cmd *cobra.Command, args []string) error {
			changes := []struct {
				flag  string
				field client.EditField
				value string
			}{
				{"title", client.FieldTitle, title},
				{"type", client.FieldType, claimType},
				{"details", client.FieldDetails, details},
			}
			return withClient(cmd, opts, func(ctx context.Context, c *client.Client) error {
				v := c.NewManageView()
				if err := v.Load(ctx); err != nil {
					return err
				}
				if _, _, err := v.BeginEdit(claimID); err != nil {
					return err
				}
				for _, ch := range changes {
					if !cmd.Flags().Changed(ch.flag) {
						continue
					}
					if err := v.UpdateField(ch.field, ch.value); err != nil {
						return err
					}
				}
				saved, err := v.CommitEdit(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Claim updated: %s - %s\n", saved.ID, saved.Title)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&claimID, "id", "", "Claim ID (required)")
	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&claimType, "type", "", "New claim type")
	cmd.Flags().StringVar(&details, "details", "", "New details")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func newDeleteCmd(opts *rootOptions) *cobra.Command {
	var claimID string
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a claim",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, opts, func(ctx context.Context, c *client.Client) error {
				v := c.NewManageView()
				if err := v.Load(ctx); err != nil {
					return err
				}
				if err := v.Delete(ctx, claimID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Claim deleted: %s\n", claimID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&claimID, "id", "", "Claim ID (required)")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func newServeDevCmd(opts *rootOptions) *cobra.Command {
	var addr string
	var typed bool
	cmd := &cobra.Command{
		Use:   "serve-dev",
		Short: "Run an in-memory claims service for local development",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.New()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.DevAddr
			}
			log := logger.New("claims-devservice")
			srv := &http.Server{
				Addr: addr,
				Handler: devservice.New(devservice.Options{
					Typed:  typed,
					Window: cfg.DueSoonWindow,
					Logger: log,
				}),
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				log.Info().Str("addr", addr).Bool("typed", typed).Msg("dev claims service listening")
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}
			log.Info().Msg("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default $CLAIMSURE_DEV_ADDR)")
	cmd.Flags().BoolVar(&typed, "typed", false, "Encode listed claims as DynamoDB attribute maps")
	return cmd
}
