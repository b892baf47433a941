package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ReyCannavaro/urbangrow/agribot"
	"github.com/ReyCannavaro/urbangrow/client"
	"github.com/ReyCannavaro/urbangrow/models"
	"github.com/spf13/cobra"
)

const requestTimeout = 30 * time.Second

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Poll the API and print the dashboard view",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		out := cmd.OutOrStdout()
		poller := client.NewPoller(client.New(cfg.APIBaseURL, nil), client.PollerOptions{
			Interval: cfg.PollInterval,
			Logger:   logger,
			OnUpdate: func(s client.Snapshot) {
				printSnapshot(out, s)
			},
			OnAlert: func(err error) {
				fmt.Fprintf(cmd.ErrOrStderr(), "Koneksi Gagal: tidak dapat terhubung ke server API di %s (%v)\n", cfg.APIBaseURL, err)
			},
		})
		poller.Start(ctx)
		<-ctx.Done()
		poller.Stop()
		return nil
	},
}

var toggleCmd = &cobra.Command{
	Use:   "toggle <pump|light> [on|off]",
	Short: "Switch the pump or grow light",
	Long:  "Switch the pump or grow light. Without a state the current one is flipped.",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		field, value, err := parseToggleArgs(args)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
		defer cancel()

		api := client.New(cfg.APIBaseURL, nil)
		submitter := client.NewSubmitter(api, client.NewPoller(api, client.PollerOptions{Logger: logger}))

		var state models.ActuatorState
		if value == "" {
			state, err = submitter.Toggle(ctx, field)
		} else {
			state, err = submitter.Set(ctx, field, value)
		}
		if err != nil {
			return fmt.Errorf("gagal mengirim perintah kontrol: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Pompa: %s  Lampu: %s\n", state.PumpStatus, state.LightStatus)
		return nil
	},
}

var (
	ingestTemperature float64
	ingestPH          float64
	ingestLDR         int
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Post one sensor reading, as the rig does",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		in := models.ReadingInput{}
		if cmd.Flags().Changed("temperature") {
			in.Temperature = &ingestTemperature
		}
		if cmd.Flags().Changed("ph") {
			in.PH = &ingestPH
		}
		if cmd.Flags().Changed("ldr") {
			in.LDRValue = &ingestLDR
		}
		if err := in.Validate(); err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
		defer cancel()

		id, err := client.New(cfg.APIBaseURL, nil).UpdateSensor(ctx, in)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Data sensor berhasil disimpan (id %d)\n", id)
		return nil
	},
}

func init() {
	ingestCmd.Flags().Float64Var(&ingestTemperature, "temperature", 0, "Water temperature in °C")
	ingestCmd.Flags().Float64Var(&ingestPH, "ph", 0, "Water pH")
	ingestCmd.Flags().IntVar(&ingestLDR, "ldr", 0, "Raw light sensor value")
}

var chatCmd = &cobra.Command{
	Use:   "chat <question>",
	Short: "Ask AgriBot about aquaponics, hydroponics or urban farming",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
		defer cancel()

		bot, err := agribot.NewFromAPIKey(ctx, cfg.GeminiAPIKey, agribot.Options{
			Model:  cfg.GeminiModel,
			Logger: logger,
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), bot.Reply(ctx, strings.Join(args, " ")))
		return nil
	},
}

func parseToggleArgs(args []string) (models.ActuatorField, models.SwitchState, error) {
	var field models.ActuatorField
	switch strings.ToLower(args[0]) {
	case "pump", "pompa":
		field = models.PumpStatus
	case "light", "lampu":
		field = models.LightStatus
	default:
		return "", "", fmt.Errorf("unknown actuator %q, want pump or light", args[0])
	}
	if len(args) == 1 {
		return field, "", nil
	}
	value, err := models.ParseSwitchState(strings.ToUpper(args[1]))
	if err != nil {
		return "", "", err
	}
	return field, value, nil
}

func printSnapshot(w io.Writer, s client.Snapshot) {
	if s.State != client.Connected {
		fmt.Fprintf(w, "[%s] %s: %v\n", time.Now().Format("15:04:05"), s.State, s.Err)
		return
	}
	r := s.Reading
	fmt.Fprintf(w, "[%s] suhu %.1f°C (%s)  pH %.2f (%s)  cahaya %d  pompa %s  lampu %s  %s\n",
		r.Timestamp.Local().Format("15:04:05"),
		r.Temperature, s.Quality.TempStatus,
		r.PH, s.Quality.PHStatus,
		r.LDRValue,
		s.Actuators.PumpStatus, s.Actuators.LightStatus,
		s.Quality.Label,
	)
}
