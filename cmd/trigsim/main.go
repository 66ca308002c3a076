// Trigsim runs a synthetic engine: a trigger wheel spinning at a set
// speed, spark events scheduled by engine phase, and a report of how the
// angle-anchored requests were converted to time-based firings.
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/rotorlab/trigsched/outputs"
	"github.com/rotorlab/trigsched/sim"
	"github.com/rotorlab/trigsched/simulation"
	"github.com/rotorlab/trigsched/trigger"
	"github.com/rotorlab/trigsched/wheel"
)

var (
	rpmFlag         float64
	teethFlag       int
	cycleFlag       float64
	revolutionsFlag int
	sparkAngleFlag  float64
	dwellAngleFlag  float64
	outputFlag      string
	monitorFlag     bool
	monitorPortFlag int
)

var rootCmd = &cobra.Command{
	Use:   "trigsim",
	Short: "Trigsim simulates angle-to-time scheduling on a trigger wheel.",
	Long: `Trigsim spins a synthetic trigger wheel and schedules one spark per ` +
		`engine cycle through the trigger scheduler, recording every converted ` +
		`time-based firing into a SQLite database.`,
	RunE: run,
}

func init() {
	rootCmd.Flags().Float64Var(&rpmFlag, "rpm", 3000,
		"engine speed in revolutions per minute")
	rootCmd.Flags().IntVar(&teethFlag, "teeth", 60,
		"number of teeth on the trigger wheel")
	rootCmd.Flags().Float64Var(&cycleFlag, "cycle", 720,
		"engine cycle length in degrees")
	rootCmd.Flags().IntVar(&revolutionsFlag, "cycles", 100,
		"number of engine cycles to simulate")
	rootCmd.Flags().Float64Var(&sparkAngleFlag, "spark-angle", 350,
		"engine phase at which the spark fires, in degrees")
	rootCmd.Flags().Float64Var(&dwellAngleFlag, "dwell-angle", 30,
		"degrees of coil dwell before the spark")
	rootCmd.Flags().StringVar(&outputFlag, "output", "",
		"output database name, without extension")
	rootCmd.Flags().BoolVar(&monitorFlag, "monitor", false,
		"serve scheduler state over HTTP while running")
	rootCmd.Flags().IntVar(&monitorPortFlag, "monitor-port", 0,
		"port for the monitoring server, 0 picks a random port")
}

func loadEnv() {
	// A .env file is optional.
	_ = godotenv.Load()

	if v := os.Getenv("TRIGSIM_RPM"); v != "" {
		rpm, err := strconv.ParseFloat(v, 64)
		if err == nil {
			rpmFlag = rpm
		}
	}

	if v := os.Getenv("TRIGSIM_OUTPUT"); v != "" {
		outputFlag = v
	}
}

func run(_ *cobra.Command, _ []string) error {
	builder := simulation.MakeBuilder().
		WithWheel(teethFlag, sim.Angle(cycleFlag)).
		WithOutputFileName(outputFlag)

	if monitorFlag {
		if monitorPortFlag > 0 {
			builder = builder.WithMonitorPort(monitorPortFlag)
		}
	} else {
		builder = builder.WithoutMonitoring()
	}

	s := builder.Build()

	coil := new(outputs.OutputPin)
	coil.Init("coil 1")

	dwellStart := sim.WrapAngle(
		sim.Angle(sparkAngleFlag-dwellAngleFlag), sim.Angle(cycleFlag))

	chargeEvent := &trigger.PhaseEvent{}
	fireEvent := &trigger.PhaseEvent{}

	sparks := 0
	charge := sim.MakeAction(func(any) { coil.SetValue(true) }, nil)
	fire := sim.MakeAction(func(any) {
		coil.SetValue(false)
		sparks++
	}, nil)

	scheduler := s.Scheduler()
	generator := wheel.NewGenerator(s.Wheel(), sim.RPM(rpmFlag))

	for cycle := 0; cycle < revolutionsFlag; cycle++ {
		scheduler.ScheduleOrQueue(chargeEvent, sim.RPM(rpmFlag),
			trigger.TriggerIndexUndefined, 0, dwellStart, 0, 0, charge)
		scheduler.ScheduleOrQueue(fireEvent, sim.RPM(rpmFlag),
			trigger.TriggerIndexUndefined, 0, sim.Angle(sparkAngleFlag),
			0, 0, fire)

		for tooth := 0; tooth < s.Wheel().Teeth; tooth++ {
			s.AdvanceToEdge(generator.Next())
		}
	}

	// Fire whatever is still armed past the last edge.
	s.Executor().RunUntil(s.Executor().CurrentTime() + 1)

	s.Terminate()

	fmt.Printf("simulation %s finished\n", s.ID())
	fmt.Printf("  engine cycles: %d\n", revolutionsFlag)
	fmt.Printf("  sparks fired:  %d\n", sparks)
	fmt.Printf("  still pending: %d\n", scheduler.QueueLen())
	fmt.Printf("  reuse count:   %d\n", scheduler.ReuseCount())

	return nil
}

func main() {
	loadEnv()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "trigsim: %s\n", err.Error())
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
