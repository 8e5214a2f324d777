package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ayusman/chakra/internal/gesture"
	"github.com/ayusman/chakra/internal/hand"
	"github.com/ayusman/chakra/internal/store"
)

func newCalibrateCmd(root *rootFlags) *cobra.Command {
	var (
		samplesPath string
		reset       bool
		activate    bool
	)

	cmd := &cobra.Command{
		Use:   "calibrate PROFILE",
		Short: "Train a finger profile from recorded curl samples",
		Long: `calibrate appends the samples in --samples (a JSON array of
{"kind": "straight"|"curled", "curls": [5 values]}) to PROFILE, creating it if
needed, derives per-finger thresholds from every stored sample and saves them.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Context(), root)
			if err != nil {
				return err
			}

			var samples []json.RawMessage
			if samplesPath != "" {
				samples, err = readSamples(samplesPath, cmd.InOrStdin())
				if err != nil {
					return err
				}
			}

			st, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			p, err := calibrateProfile(st, args[0], samples, reset, activate)
			if err != nil {
				return err
			}
			printProfile(cmd.OutOrStdout(), p, activate)
			return nil
		},
	}

	cmd.Flags().StringVar(&samplesPath, "samples", "", "JSON file with samples to add, - for stdin")
	cmd.Flags().BoolVar(&reset, "reset", false, "drop previously stored samples first")
	cmd.Flags().BoolVar(&activate, "activate", true, "make the profile active")
	return cmd
}

func readSamples(path string, stdin io.Reader) ([]json.RawMessage, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read samples: %w", err)
	}

	var samples []json.RawMessage
	if err := json.Unmarshal(data, &samples); err != nil {
		return nil, fmt.Errorf("samples must be a JSON array: %w", err)
	}
	for i, raw := range samples {
		if _, err := gesture.ParseSample(raw); err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}
	}
	return samples, nil
}

// calibrateProfile stores samples under the named profile, trains it from
// all of its samples and optionally makes it the active profile.
func calibrateProfile(st *store.Store, name string, samples []json.RawMessage, reset, activate bool) (*store.Profile, error) {
	p, err := st.Profiles().GetByName(name)
	if errors.Is(err, store.ErrNotFound) {
		p = &store.Profile{
			ID:                uuid.New().String(),
			Name:              name,
			Thresholds:        gesture.DefaultThresholds(),
			PalmOpenThreshold: gesture.DefaultPalmOpenThreshold,
		}
		if err := st.Profiles().Create(p); err != nil {
			return nil, fmt.Errorf("failed to create profile: %w", err)
		}
	} else if err != nil {
		return nil, err
	}

	if reset {
		if err := st.Samples().DeleteByProfileID(p.ID); err != nil {
			return nil, fmt.Errorf("failed to reset samples: %w", err)
		}
	}
	if len(samples) > 0 {
		if _, err := st.Samples().Append(p.ID, samples); err != nil {
			return nil, fmt.Errorf("failed to save samples: %w", err)
		}
	}

	raw, err := st.Samples().RawByProfileID(p.ID)
	if err != nil {
		return nil, err
	}
	table, err := gesture.Calibrate(raw)
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", name, err)
	}

	// reload for the sample count Append maintains
	p, err = st.Profiles().GetByID(p.ID)
	if err != nil {
		return nil, err
	}
	p.Thresholds = table
	p.Trained = true
	if err := st.Profiles().Update(p); err != nil {
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}

	if activate {
		if err := st.Settings().Set(store.SettingActiveProfile, p.ID); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func printProfile(w io.Writer, p *store.Profile, active bool) {
	fmt.Fprintf(w, "profile %s (%s), %d samples", p.Name, p.ID, p.Samples)
	if active {
		fmt.Fprint(w, ", active")
	}
	fmt.Fprintln(w)
	for f, th := range p.Thresholds {
		fmt.Fprintf(w, "  %-6s straight <= %.3f  curled >= %.3f\n", hand.Finger(f), th.Straight, th.Curl)
	}
}
