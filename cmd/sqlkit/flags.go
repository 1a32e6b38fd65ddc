package main

import "flag"

// Flags holds all command-line flags
type Flags struct {
	// Commands
	List    *bool
	Export  *string
	Import  *string
	Receive *bool
	Report  *string
	Split   *string

	// Options
	Config  *string
	Output  *string
	Send    *bool
	Bundle  *bool
	Plan    *bool
	Execute *bool

	CreateConfig *string

	Version *bool
	Help    *bool
}

// ParseFlags defines and parses all command-line flags
func ParseFlags(args []string) (*Flags, error) {
	fs := flag.NewFlagSet("sqlkit", flag.ContinueOnError)
	f := &Flags{
		List:    fs.Bool("list", false, "List tables of the configured database"),
		Export:  fs.String("export", "", "Export structure of comma-separated tables (\"-\" uses tables from config)"),
		Import:  fs.String("import", "", "Merge structure from an XML dump or bundle file"),
		Receive: fs.Bool("receive", false, "Merge structure received from the configured transport"),
		Report:  fs.String("report", "", "Write an XLSX structure report of comma-separated tables"),
		Split:   fs.String("split", "", "Split an SQL file into statements"),

		Config:  fs.String("config", "config.yaml", "Configuration file"),
		Output:  fs.String("output", "", "Output file (stdout when empty)"),
		Send:    fs.Bool("send", false, "Send the export through the configured transport"),
		Bundle:  fs.Bool("bundle", false, "Wrap the export into a checksummed bundle"),
		Plan:    fs.Bool("plan", false, "Print the statements an import would run without executing them"),
		Execute: fs.Bool("exec", false, "Execute the statements of -split"),

		CreateConfig: fs.String("create-config", "", "Print a configuration template for a driver"),

		Version: fs.Bool("version", false, "Show version"),
		Help:    fs.Bool("help", false, "Show help"),
	}
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return f, nil
}

func commandWasSpecified(f *Flags) bool {
	return *f.List || *f.Export != "" || *f.Import != "" || *f.Receive || *f.Report != "" || *f.Split != ""
}
