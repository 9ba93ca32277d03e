package cli

import (
	"errors"
	"flag"
	"fmt"
)

// ReconcileFlags are the flags of the reconcile command
type ReconcileFlags struct {
	ConfigPath string
	Org        string
	From       string
	To         string
	Unmatched  bool
	CompleteID string
	Notes      string
	Verbose    bool
}

// ParseReconcileFlags parses reconcile flags from args (without the program name)
func ParseReconcileFlags(name string, args []string) (ReconcileFlags, error) {
	var flags ReconcileFlags
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.StringVar(&flags.ConfigPath, "config", "", "Configuration file path (default: config.yaml, then environment)")
	fs.StringVar(&flags.Org, "org", "", "Organization to reconcile (required)")
	fs.StringVar(&flags.From, "from", "", "Start of the period, YYYY-MM-DD")
	fs.StringVar(&flags.To, "to", "", "End of the period, YYYY-MM-DD")
	fs.BoolVar(&flags.Unmatched, "unmatched", false, "List unmatched payments and bank transactions instead of reconciling")
	fs.StringVar(&flags.CompleteID, "complete", "", "Complete the reconciliation with this ID")
	fs.StringVar(&flags.Notes, "notes", "", "Notes stored when completing")
	fs.BoolVar(&flags.Verbose, "verbose", false, "Verbose output")

	if err := fs.Parse(args); err != nil {
		return flags, err
	}
	if err := flags.validate(); err != nil {
		fs.Usage()
		return flags, err
	}
	return flags, nil
}

func (f ReconcileFlags) validate() error {
	if f.Org == "" {
		return errors.New("-org is required")
	}
	if f.CompleteID != "" {
		if f.Unmatched {
			return errors.New("-complete and -unmatched are mutually exclusive")
		}
		return nil
	}
	if f.From == "" || f.To == "" {
		return fmt.Errorf("-from and -to are required")
	}
	return nil
}

// ServeFlags holds the CLI flags for the serve command.
type ServeFlags struct {
	ConfigPath string
	Port       int // 0 = use config
	Verbose    bool
}

// ParseServeFlags parses command line flags for the serve command.
func ParseServeFlags(name string, args []string) (ServeFlags, error) {
	var flags ServeFlags
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.StringVar(&flags.ConfigPath, "config", "", "Configuration file path (default: config.yaml, then environment)")
	fs.IntVar(&flags.Port, "port", 0, "Port to listen on (overrides config)")
	fs.BoolVar(&flags.Verbose, "verbose", false, "Verbose output")
	err := fs.Parse(args)
	return flags, err
}
