package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/warp/payroll-engine/calendar"
	"github.com/warp/payroll-engine/factory"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/render"
)

var version = "dev"

var rulesetPath string

func loadRuleset() (*factory.Ruleset, error) {
	if rulesetPath != "" {
		return factory.LoadFile(rulesetPath)
	}
	return factory.Default()
}

var rootCmd = &cobra.Command{
	Use:           "payctl",
	Short:         "Semi-monthly payroll calculator",
	Long:          "Resolve pay periods, look up statutory contributions and tax, and compute payslips from the command line.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "payctl %s\n", version)
		},
	}
}

// =============================================================================
// CALENDAR COMMANDS
// =============================================================================

func periodCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "period YEAR MONTH HALF",
		Short: "Resolve a semi-monthly pay period",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, month, half, err := parsePeriodArgs(args)
			if err != nil {
				return err
			}
			rs, err := loadRuleset()
			if err != nil {
				return err
			}
			p, err := calendar.Resolve(year, month, calendar.Half(half))
			if err != nil {
				return err
			}
			sum, err := payroll.NewEngine(rs.Calculator, rs.Holidays).Summarize(p)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "Period\t%s\n", p.Display())
			fmt.Fprintf(tw, "Start\t%s\n", p.Start)
			fmt.Fprintf(tw, "End\t%s\n", p.End)
			fmt.Fprintf(tw, "Calendar days\t%d\n", sum.CalendarDays)
			fmt.Fprintf(tw, "Working days\t%d\n", sum.WorkingDays)
			fmt.Fprintf(tw, "Regular holidays\t%d\n", sum.RegularHolidays)
			fmt.Fprintf(tw, "Special holidays\t%d\n", sum.SpecialHolidays)
			return tw.Flush()
		},
	}
}

func holidaysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "holidays YEAR",
		Short: "List the holidays of a year",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("year %q is not a number", args[0])
			}
			rs, err := loadRuleset()
			if err != nil {
				return err
			}
			hs, err := rs.Holidays.Holidays(year)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, h := range hs {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", h.Date, h.Category, h.Name)
			}
			return tw.Flush()
		},
	}
}

// =============================================================================
// STATUTORY COMMANDS
// =============================================================================

func contributionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "contributions MONTHLY_SALARY",
		Short: "Show SSS, PhilHealth and Pag-IBIG for a monthly salary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			salary, err := decimal.NewFromString(args[0])
			if err != nil {
				return fmt.Errorf("salary %q is not a decimal", args[0])
			}
			rs, err := loadRuleset()
			if err != nil {
				return err
			}
			c, err := rs.Calculator.Monthly(salary)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintf(tw, "SSS\t%s\t\n", render.Money(c.SSS))
			fmt.Fprintf(tw, "PhilHealth\t%s\t\n", render.Money(c.PhilHealth))
			fmt.Fprintf(tw, "Pag-IBIG\t%s\t\n", render.Money(c.PagIbig))
			fmt.Fprintf(tw, "Total\t%s\t\n", render.Money(c.Total()))
			return tw.Flush()
		},
	}
}

func taxCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tax MONTHLY_TAXABLE",
		Short: "Show the monthly withholding tax",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			income, err := decimal.NewFromString(args[0])
			if err != nil {
				return fmt.Errorf("income %q is not a decimal", args[0])
			}
			rs, err := loadRuleset()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Withholding tax: %s\n", render.Money(rs.Calculator.WithholdingTax(income)))
			if b, ok := rs.Calculator.TaxBracketFor(income); ok {
				fmt.Fprintf(out, "Bracket: over %s, %s + %s%% of excess over %s\n",
					b.Over, b.Base.StringFixed(2), b.Rate.Shift(2).String(), b.Anchor)
			} else {
				fmt.Fprintln(out, "Bracket: exempt")
			}
			return nil
		},
	}
}

// =============================================================================
// PAYSLIP COMMAND
// =============================================================================

func payslipCmd() *cobra.Command {
	var (
		employeeID    string
		salary        string
		days          int
		overtime      string
		regularWorked int
		specialWorked int
		allowances    string
		deductions    string
		synthetic     bool
		seed          int64
		asJSON        bool
	)
	cmd := &cobra.Command{
		Use:   "payslip YEAR MONTH HALF",
		Short: "Compute a payslip from explicit or synthetic facts",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, month, half, err := parsePeriodArgs(args)
			if err != nil {
				return err
			}
			rs, err := loadRuleset()
			if err != nil {
				return err
			}
			p, err := calendar.Resolve(year, month, calendar.Half(half))
			if err != nil {
				return err
			}
			monthly, err := decimal.NewFromString(salary)
			if err != nil {
				return fmt.Errorf("salary %q is not a decimal", salary)
			}

			var src payroll.FactSource
			if synthetic {
				src = payroll.SyntheticFacts{Seed: seed}
			} else {
				f := payroll.Facts{
					DaysWorked:            days,
					RegularHolidaysWorked: regularWorked,
					SpecialHolidaysWorked: specialWorked,
				}
				for _, v := range []struct {
					name string
					raw  string
					dst  *decimal.Decimal
				}{
					{"overtime", overtime, &f.OvertimeHours},
					{"allowances", allowances, &f.Allowances},
					{"deductions", deductions, &f.OtherDeductions},
				} {
					d, err := decimal.NewFromString(v.raw)
					if err != nil {
						return fmt.Errorf("%s %q is not a decimal", v.name, v.raw)
					}
					*v.dst = d
				}
				src = payroll.FixedFacts(f)
			}

			engine := payroll.NewEngine(rs.Calculator, rs.Holidays)
			slip, err := engine.GenerateFrom(context.Background(), src, payroll.NewEmployee(employeeID, monthly), p)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(slip)
			}
			return render.Text(cmd.OutOrStdout(), render.Header{EmployeeID: employeeID, EmployeeName: employeeID}, slip)
		},
	}
	cmd.Flags().StringVar(&employeeID, "employee", "EMP-001", "employee ID")
	cmd.Flags().StringVar(&salary, "salary", "", "monthly salary")
	cmd.Flags().IntVar(&days, "days", 0, "days worked")
	cmd.Flags().StringVar(&overtime, "overtime", "0", "overtime hours")
	cmd.Flags().IntVar(&regularWorked, "regular-holidays", 0, "regular holidays worked")
	cmd.Flags().IntVar(&specialWorked, "special-holidays", 0, "special holidays worked")
	cmd.Flags().StringVar(&allowances, "allowances", "0", "allowances for the period")
	cmd.Flags().StringVar(&deductions, "deductions", "0", "other deductions for the period")
	cmd.Flags().BoolVar(&synthetic, "synthetic", false, "generate plausible facts instead of using the flags")
	cmd.Flags().Int64Var(&seed, "seed", 1, "seed for --synthetic")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the payslip as JSON")
	cmd.MarkFlagRequired("salary")
	return cmd
}

// =============================================================================
// RULESET COMMAND
// =============================================================================

func rulesetCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "ruleset",
		Short: "Validate and print the active ruleset",
		RunE: func(cmd *cobra.Command, args []string) error {
			rs, err := loadRuleset()
			if err != nil {
				return err
			}
			doc := factory.ToDocument(rs)
			switch format {
			case "yaml":
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent(2)
				defer enc.Close()
				return enc.Encode(doc)
			case "json":
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(doc)
			default:
				return fmt.Errorf("unknown format %q (want yaml or json)", format)
			}
		},
	}
	cmd.Flags().StringVar(&format, "format", "yaml", "output format: yaml or json")
	return cmd
}

func parsePeriodArgs(args []string) (year, month, half int, err error) {
	nums := make([]int, 3)
	for i, name := range []string{"year", "month", "half"} {
		nums[i], err = strconv.Atoi(args[i])
		if err != nil {
			return 0, 0, 0, fmt.Errorf("%s %q is not a number", name, args[i])
		}
	}
	return nums[0], nums[1], nums[2], nil
}

func main() {
	rootCmd.PersistentFlags().StringVar(&rulesetPath, "ruleset", "", "ruleset file (YAML or JSON); default is the embedded Philippine ruleset")
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(periodCmd())
	rootCmd.AddCommand(holidaysCmd())
	rootCmd.AddCommand(contributionsCmd())
	rootCmd.AddCommand(taxCmd())
	rootCmd.AddCommand(payslipCmd())
	rootCmd.AddCommand(rulesetCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
