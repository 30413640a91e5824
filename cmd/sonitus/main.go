package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/sonitus/sonitus/internal/params"
	"github.com/sonitus/sonitus/internal/synth"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// options collects everything parsed from the command line.
type options struct {
	params     params.Parameters
	configPath string
	silent     bool
	noLog      bool
	mqttBroker string
	mqttTopic  string
}

func main() {
	args := os.Args[1:]

	command := "run"
	rest := args[:0]
	for _, a := range args {
		switch a {
		case "help", "-h", "--help":
			printUsage()
			return
		case "version", "-V", "--version":
			printVersion()
			return
		case "history", "clear-history":
			command = a
		default:
			rest = append(rest, a)
		}
	}

	switch command {
	case "history":
		showHistory(rest)
	case "clear-history":
		clearHistory()
	default:
		opts, err := parseOptions(rest)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			fmt.Fprintf(os.Stderr, "Run 'sonitus help' for usage.\n")
			os.Exit(1)
		}
		if err := runSession(opts); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
}

// parseOptions loads the config file first, then applies flag overrides
// on top, so the command line always wins.
func parseOptions(args []string) (options, error) {
	var opts options

	// --config must be known before loading, so scan for it first.
	for i := 0; i < len(args); i++ {
		if args[i] == "--config" || args[i] == "-c" {
			if i+1 >= len(args) {
				return opts, fmt.Errorf("--config requires a file path")
			}
			opts.configPath = args[i+1]
		}
	}

	p, err := params.Load(opts.configPath)
	if err != nil {
		return opts, err
	}

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--config", "-c":
			i++ // consumed above
		case "--silent":
			opts.silent = true
		case "--no-log":
			opts.noLog = true
		case "--technique", "-t":
			v, err := stringArg(args, &i)
			if err != nil {
				return opts, err
			}
			technique, err := synth.ParseTechnique(v)
			if err != nil {
				return opts, fmt.Errorf("technique must be one of cluster, tone, noise, speech")
			}
			p.Technique = technique
		case "--text":
			v, err := stringArg(args, &i)
			if err != nil {
				return opts, err
			}
			p.SpokenText = v
		case "--mqtt-broker":
			v, err := stringArg(args, &i)
			if err != nil {
				return opts, err
			}
			opts.mqttBroker = v
		case "--mqtt-topic":
			v, err := stringArg(args, &i)
			if err != nil {
				return opts, err
			}
			opts.mqttTopic = v
		case "--freq", "-f":
			if err := floatArg(args, &i, &p.StimulusFrequencyHz); err != nil {
				return opts, err
			}
		case "--duration", "-d":
			if err := floatArg(args, &i, &p.DurationSeconds); err != nil {
				return opts, err
			}
		case "--interval", "-i":
			if err := floatArg(args, &i, &p.IntervalSeconds); err != nil {
				return opts, err
			}
		case "--pan":
			if err := floatArg(args, &i, &p.PanPosition); err != nil {
				return opts, err
			}
		case "--volume", "-v":
			if err := floatArg(args, &i, &p.MasterVolume); err != nil {
				return opts, err
			}
		case "--lowpass":
			if err := floatArg(args, &i, &p.LowpassCutoffHz); err != nil {
				return opts, err
			}
		case "--highpass":
			if err := floatArg(args, &i, &p.HighpassCutoffHz); err != nil {
				return opts, err
			}
		default:
			return opts, fmt.Errorf("unknown argument %q", args[i])
		}
	}

	if err := p.Validate(); err != nil {
		return opts, err
	}
	opts.params = p
	return opts, nil
}

func stringArg(args []string, i *int) (string, error) {
	if *i+1 >= len(args) {
		return "", fmt.Errorf("%s requires a value", args[*i])
	}
	*i++
	return args[*i], nil
}

func floatArg(args []string, i *int, dst *float64) error {
	flag := args[*i]
	if *i+1 >= len(args) {
		return fmt.Errorf("%s requires a numeric value", flag)
	}
	*i++
	v, err := strconv.ParseFloat(args[*i], 64)
	if err != nil {
		return fmt.Errorf("%s: %q is not a number", flag, args[*i])
	}
	*dst = v
	return nil
}

func printUsage() {
	fmt.Print(`sonitus - timed acoustic stimulus sessions

Usage:
  sonitus [flags]            start a session
  sonitus history [N]        show the last N logged session events
  sonitus clear-history      delete all logged session events
  sonitus version            print version information

Flags:
  -f, --freq HZ        stimulus base frequency (default 440)
  -d, --duration SEC   stimulus duration (default 2)
  -i, --interval SEC   silence between stimuli (default 1)
  -t, --technique T    cluster | tone | noise | speech (default tone)
      --text TEXT      phrase for the speech technique
      --pan P          stereo position, -1 (left) to 1 (right)
  -v, --volume V       master volume, 0 to 1 (default 0.8)
      --lowpass HZ     lowpass cutoff (default 8000)
      --highpass HZ    highpass cutoff (default 80)
  -c, --config PATH    parameter file (default ~/.config/sonitus/sonitus.json)
      --silent         run without an audio device (for testing schedules)
      --no-log         skip the session event log
      --mqtt-broker U  publish status to an MQTT broker (e.g. tcp://host:1883)
      --mqtt-topic T   MQTT topic for status (default sonitus/status)

Session keys:
  p  pause     r  resume     s  stop (reset clock)     q  quit
`)
}

func printVersion() {
	fmt.Printf("sonitus %s (built %s)\n", version, buildDate)
}
