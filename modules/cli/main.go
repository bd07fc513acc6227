package cli

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/lkarlslund/dacledit/modules/ui"
	"github.com/lkarlslund/dacledit/modules/version"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	Root = &cobra.Command{
		Use:              "dacledit",
		Short:            "Grant rights on Active Directory objects by rewriting their DACL over LDAP",
		Version:          version.VersionStringShort(),
		SilenceErrors:    true,
		SilenceUsage:     true,
		TraverseChildren: true,
	}

	loglevel = Root.PersistentFlags().String("loglevel", "info", "Console log level")

	logfile      = Root.PersistentFlags().String("logfile", "", "File to log to, {timestamp} is replaced with the current date")
	logfilelevel = Root.PersistentFlags().String("logfilelevel", "info", "Log file log level")
	logzerotime  = Root.PersistentFlags().Bool("logzerotime", false, "Logged timestamps start from zero when program launches")

	Configpath = Root.PersistentFlags().String("configpath", "", "Folder containing configuration.yaml with default flag values")

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Show dacledit version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			ui.Info().Msg(version.ProgramVersionShort())
			return nil
		},
	}
)

func bindFlags(cmd *cobra.Command, v *viper.Viper) {
	apply := func(f *pflag.Flag) {
		// Apply the viper config value to the flag when the flag is not set and viper has a value
		if !f.Changed && v.IsSet(f.Name) {
			if sv, ok := f.Value.(pflag.SliceValue); ok {
				sv.Replace(v.GetStringSlice(f.Name))
			} else {
				f.Value.Set(v.GetString(f.Name))
			}
		}
	}
	cmd.PersistentFlags().VisitAll(apply)
	cmd.Flags().VisitAll(apply)
	for _, subCommand := range cmd.Commands() {
		bindFlags(subCommand, v)
	}
}

func newViper() *viper.Viper {
	v := viper.New()
	// Flags map to DACLEDIT_<FLAG> with dashes as underscores
	v.SetEnvPrefix("DACLEDIT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

func loadConfiguration(cmd *cobra.Command) {
	v := newViper()

	if *Configpath != "" {
		configfilename := filepath.Join(*Configpath, "configuration.yaml")
		v.SetConfigFile(configfilename)
		if err := v.ReadInConfig(); err == nil {
			ui.Debug().Msgf("Using configuration file: %v", v.ConfigFileUsed())
		} else {
			ui.Warn().Msgf("No settings loaded from %v: %v", configfilename, err.Error())
		}
	}

	bindFlags(cmd, v)
}

func init() {
	cobra.OnInitialize(func() {
		loadConfiguration(Root)
	})

	Root.AddCommand(versionCmd)
	Root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		ui.Zerotime = *logzerotime

		ll, err := ui.LogLevelString(*loglevel)
		if err != nil {
			ui.Error().Msgf("Invalid log level: %v - use one of: %v", *loglevel, ui.LogLevelStrings())
		} else {
			ui.SetLoglevel(ll)
		}

		if *logfile != "" {
			timestamp := time.Now().Format(time.DateOnly)
			*logfile = strings.Replace(*logfile, "{timestamp}", timestamp, 1)

			ll, err = ui.LogLevelString(*logfilelevel)
			if err != nil {
				ui.Error().Msgf("Invalid log file log level: %v - use one of: %v", *logfilelevel, ui.LogLevelStrings())
			} else if err = ui.SetLogFile(*logfile, ll); err != nil {
				return err
			}
		}

		ui.Debug().Msg(version.VersionString())
		return nil
	}
	Root.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		return ui.SetLogFile("", ui.LevelInfo)
	}
}

func CliMainEntryPoint() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return Root.ExecuteContext(ctx)
}
