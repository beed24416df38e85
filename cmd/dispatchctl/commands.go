package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/wolfman30/arcticflow-dispatch/internal/app/bootstrap"
	"github.com/wolfman30/arcticflow-dispatch/internal/bookings"
	httpmiddleware "github.com/wolfman30/arcticflow-dispatch/internal/http/middleware"
	"github.com/wolfman30/arcticflow-dispatch/internal/importer"
	"github.com/wolfman30/arcticflow-dispatch/internal/roster"
	"github.com/wolfman30/arcticflow-dispatch/internal/schedule"
)

func (c *cli) availabilityCmd() *cobra.Command {
	var date, clock, team string
	cmd := &cobra.Command{
		Use:   "availability",
		Short: "List technicians free for a slot",
		RunE: func(cmd *cobra.Command, args []string) error {
			slot, err := schedule.NormalizeSlot(date, clock)
			if err != nil {
				return err
			}
			tt, ok := roster.ParseTeamType(team)
			if !ok {
				return fmt.Errorf("unknown team %q", team)
			}
			return c.withEngine(cmd, func(ctx context.Context, e *bootstrap.Engine) error {
				free, err := e.Resolver.Available(ctx, slot, tt)
				if err != nil {
					return err
				}
				if c.jsonOutput() {
					return printJSON(cmd.OutOrStdout(), free)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(cmd.OutOrStdout())
				tw.SetTitle(fmt.Sprintf("%s %s", tt, slot))
				tw.AppendHeader(table.Row{"ID", "Name", "Phone", "ARC Licence"})
				for _, m := range free {
					tw.AppendRow(table.Row{m.ID, m.Name, m.Phone, m.ARCLicense})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&clock, "time", "09:00", "time (HH:MM)")
	cmd.Flags().StringVar(&team, "team", string(roster.TeamRepair), "team (Repair or Installation)")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

func (c *cli) summaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Print the seven-day availability digest",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withEngine(cmd, func(ctx context.Context, e *bootstrap.Engine) error {
				digest, err := e.Resolver.Summary(ctx)
				if err != nil {
					return err
				}
				if c.jsonOutput() {
					return printJSON(cmd.OutOrStdout(), digest)
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), digest.String())
				return err
			})
		},
	}
}

func (c *cli) bookingsCmd() *cobra.Command {
	parent := &cobra.Command{Use: "bookings", Short: "Inspect the booking ledger"}

	var status, team, staffID string
	list := &cobra.Command{
		Use:   "list",
		Short: "List bookings",
		RunE: func(cmd *cobra.Command, args []string) error {
			f := bookings.Filter{Status: bookings.JobStatus(status), StaffID: staffID}
			if team != "" {
				tt, ok := roster.ParseTeamType(team)
				if !ok {
					return fmt.Errorf("unknown team %q", team)
				}
				f.Team = tt
			}
			return c.withEngine(cmd, func(ctx context.Context, e *bootstrap.Engine) error {
				jobs, err := e.Ledger.List(ctx, f)
				if err != nil {
					return err
				}
				if c.jsonOutput() {
					return printJSON(cmd.OutOrStdout(), jobs)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(cmd.OutOrStdout())
				tw.AppendHeader(table.Row{"ID", "Customer", "Slot", "Team", "Status", "Staff"})
				for _, b := range jobs {
					tw.AppendRow(table.Row{b.ID, b.Name, b.PreferredDateTime, b.TeamType, b.Status, strings.Join(b.AssignedStaffIDs, ",")})
				}
				tw.AppendFooter(table.Row{"", "", "", "", "Total", len(jobs)})
				tw.Render()
				return nil
			})
		},
	}
	list.Flags().StringVar(&status, "status", "", "status filter")
	list.Flags().StringVar(&team, "team", "", "team filter")
	list.Flags().StringVar(&staffID, "staff", "", "assigned staff filter")

	var author string
	assign := &cobra.Command{
		Use:   "assign BOOKING_ID [STAFF_ID]",
		Short: "Reassign a booking; omit STAFF_ID to unassign",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			staff := ""
			if len(args) == 2 {
				staff = args[1]
			}
			return c.withEngine(cmd, func(ctx context.Context, e *bootstrap.Engine) error {
				b, err := e.Ledger.Reassign(ctx, args[0], staff, author)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s is %s %v\n", b.ID, b.Status, b.AssignedStaffIDs)
				return err
			})
		},
	}
	assign.Flags().StringVar(&author, "author", "dispatchctl", "note author")

	parent.AddCommand(list, assign)
	return parent
}

func (c *cli) staffCmd() *cobra.Command {
	parent := &cobra.Command{Use: "staff", Short: "Manage the technician roster"}

	list := &cobra.Command{
		Use:   "list",
		Short: "List roster members",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withEngine(cmd, func(ctx context.Context, e *bootstrap.Engine) error {
				members, err := e.Roster.List(ctx)
				if err != nil {
					return err
				}
				if c.jsonOutput() {
					return printJSON(cmd.OutOrStdout(), members)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(cmd.OutOrStdout())
				tw.AppendHeader(table.Row{"ID", "Name", "Role", "Team", "Status", "Active"})
				for _, m := range members {
					tw.AppendRow(table.Row{m.ID, m.Name, m.Role, m.TeamType, m.Status, m.Active})
				}
				tw.Render()
				return nil
			})
		},
	}

	var req roster.EnlistRequest
	var role, team string
	add := &cobra.Command{
		Use:   "add",
		Short: "Enlist a new roster member",
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Role = roster.Role(role)
			req.TeamType = roster.TeamType(team)
			if tt, ok := roster.ParseTeamType(team); ok {
				req.TeamType = tt
			}
			return c.withEngine(cmd, func(ctx context.Context, e *bootstrap.Engine) error {
				m, err := e.Roster.Enlist(ctx, req)
				if err != nil {
					return err
				}
				if c.jsonOutput() {
					return printJSON(cmd.OutOrStdout(), m)
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "enlisted %s (%s)\n", m.Name, m.ID)
				return err
			})
		},
	}
	add.Flags().StringVar(&req.Name, "name", "", "full name")
	add.Flags().StringVar(&req.Username, "username", "", "login name")
	add.Flags().StringVar(&req.Phone, "phone", "", "mobile number")
	add.Flags().StringVar(&req.Email, "email", "", "email address")
	add.Flags().StringVar(&req.ARCLicense, "arc-license", "", "ARC refrigerant licence")
	add.Flags().StringVar(&role, "role", string(roster.RoleStaff), "role (Staff or Admin)")
	add.Flags().StringVar(&team, "team", string(roster.TeamRepair), "team (Repair or Installation)")

	toggle := &cobra.Command{
		Use:   "toggle STAFF_ID",
		Short: "Activate or deactivate a roster member",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withEngine(cmd, func(ctx context.Context, e *bootstrap.Engine) error {
				m, err := e.Roster.Toggle(ctx, args[0])
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s active=%t\n", m.ID, m.Active)
				return err
			})
		},
	}

	parent.AddCommand(list, add, toggle)
	return parent
}

func (c *cli) importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE.csv",
		Short: "Create bookings from a CSV export",
		Long: `Columns are matched by header: name, phone, email, service, address,
suburb, date, time and note. Rows without a name, a phone or email, an
address, a suburb, a date and a time are skipped. Importing the same file
twice creates nothing new.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			return c.withEngine(cmd, func(ctx context.Context, e *bootstrap.Engine) error {
				rep, err := importer.New(e.Ledger, nil).Import(ctx, f)
				if err != nil {
					return err
				}
				if c.jsonOutput() {
					return printJSON(cmd.OutOrStdout(), rep)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(cmd.OutOrStdout())
				tw.AppendHeader(table.Row{"Line", "Customer", "Booking", "Result"})
				for _, o := range rep.Outcomes {
					tw.AppendRow(table.Row{o.Line, o.Name, o.BookingID, outcomeLabel(o)})
				}
				tw.Render()
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "created %d, duplicates %d, skipped %d, failed %d\n",
					rep.Created, rep.Duplicates, rep.Skipped, rep.Failed)
				return err
			})
		},
	}
}

func outcomeLabel(o importer.Outcome) string {
	switch {
	case errors.Is(o.Err, importer.ErrMissingFields):
		return "skipped: missing required fields"
	case o.Err != nil:
		return "failed: " + o.Err.Error()
	case o.Created:
		return "created"
	default:
		return "duplicate"
	}
}

func (c *cli) invoiceCmd() *cobra.Command {
	var commit bool
	cmd := &cobra.Command{
		Use:   "invoice BOOKING_ID",
		Short: "Show a booking's invoice",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withEngine(cmd, func(ctx context.Context, e *bootstrap.Engine) error {
				if commit {
					if _, err := e.Finance.CommitCharges(ctx, args[0]); err != nil {
						return err
					}
				}
				inv, err := e.Finance.Invoice(ctx, args[0])
				if err != nil {
					return err
				}
				if c.jsonOutput() {
					return printJSON(cmd.OutOrStdout(), inv)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(cmd.OutOrStdout())
				tw.SetTitle(fmt.Sprintf("Invoice %s  %s", inv.Number, inv.Customer))
				tw.AppendHeader(table.Row{"Description", "Amount"})
				for _, li := range inv.Lines {
					tw.AppendRow(table.Row{li.Description, money(li.Amount)})
				}
				tw.AppendFooter(table.Row{"Total", money(inv.Summary.Total)})
				tw.AppendFooter(table.Row{"Paid", money(inv.Summary.Paid)})
				tw.AppendFooter(table.Row{"Balance", money(inv.Summary.Balance)})
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&commit, "commit", false, "fold labour, equipment and GST into line items first")
	return cmd
}

func money(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}

func (c *cli) seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Install the demo roster and bookings into an empty store",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withEngine(cmd, func(ctx context.Context, e *bootstrap.Engine) error {
				if err := e.SeedDemo(ctx, nil); err != nil {
					return err
				}
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "demo data ready")
				return err
			})
		},
	}
}

func (c *cli) tokenCmd() *cobra.Command {
	var subject, role, secret string
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the admin or staff API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				secret = c.config().AdminJWTSecret
			}
			if secret == "" {
				return errors.New("ADMIN_JWT_SECRET or --secret is required")
			}
			tok, err := httpmiddleware.IssueToken(secret, subject, role, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), tok)
			return err
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "admin1", "staff id the token speaks for")
	cmd.Flags().StringVar(&role, "role", httpmiddleware.RoleAdmin, "role claim (Admin or Staff)")
	cmd.Flags().StringVar(&secret, "secret", "", "signing secret (defaults to ADMIN_JWT_SECRET)")
	cmd.Flags().DurationVar(&ttl, "ttl", 12*time.Hour, "token lifetime")
	return cmd
}
