package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/shownfy/kansai-mansion-analytics/internal/features"
)

func predictCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "predict",
		Short:   "Predict the price of one unit",
		Example: `  mansionctl predict --address 大阪府大阪市北区梅田1丁目 --area 70 --building-year 2015 --floor-plan 3LDK`,
		RunE:    runPredict,
	}
	addInputFlags(cmd.Flags())
	cmd.Flags().Bool("json", false, "Print the full prediction as JSON")
	return cmd
}

func projectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Project the price of one unit as the building ages",
		RunE:  runProject,
	}
	addInputFlags(cmd.Flags())
	cmd.Flags().Bool("json", false, "Print the projection as JSON")
	return cmd
}

func addInputFlags(fs *pflag.FlagSet) {
	fs.String("address", "", "Address including the prefecture or a designated city (required)")
	fs.String("floor-plan", "", "Floor plan such as 3LDK")
	fs.Float64("area", 0, "Floor area in square meters")
	fs.Int("building-year", 0, "Year the building was completed")
	fs.Float64("station-minutes", -1, "Walking minutes to the nearest station")
	fs.String("station", "", "Nearest station name")
	fs.String("structure", "", "Building structure (RC, SRC, S, W)")
	fs.Int("year", 0, "Prediction year (default: this year)")
	fs.Int("quarter", 0, "Prediction quarter 1-4")
}

func inputFromFlags(fs *pflag.FlagSet) (features.Input, error) {
	var in features.Input
	in.Address, _ = fs.GetString("address")
	if strings.TrimSpace(in.Address) == "" {
		return in, fmt.Errorf("--address is required")
	}
	in.FloorPlan, _ = fs.GetString("floor-plan")
	in.AreaSqm, _ = fs.GetFloat64("area")
	in.BuildingYear, _ = fs.GetInt("building-year")
	in.Station, _ = fs.GetString("station")
	in.Structure, _ = fs.GetString("structure")
	in.PredictionYear, _ = fs.GetInt("year")
	in.Quarter, _ = fs.GetInt("quarter")
	if minutes, _ := fs.GetFloat64("station-minutes"); minutes >= 0 {
		in.StationMinutes = &minutes
	}
	return in, nil
}

func runPredict(cmd *cobra.Command, _ []string) error {
	in, err := inputFromFlags(cmd.Flags())
	if err != nil {
		return err
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	if err := a.Retrain.Refresh(cmd.Context(), nil); err != nil {
		return fmt.Errorf("failed to load model: %w", err)
	}

	p, err := a.Engine.Predict(cmd.Context(), in)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return writeJSON(out, p)
	}
	fmt.Fprintf(out, "%s %s\n", p.Prefecture, p.Municipality)
	fmt.Fprintf(out, "  予測価格   %s 円 (%s 円/㎡)\n", yen(p.Price), yen(p.PricePerSqm))
	fmt.Fprintf(out, "  信頼区間   %s 〜 %s 円\n", yen(p.Lower), yen(p.Upper))
	fmt.Fprintf(out, "  最寄駅     %s\n", p.Station)
	fmt.Fprintf(out, "  モデル     %s\n", p.ModelVersion)
	if len(p.Fallbacks) > 0 {
		fmt.Fprintf(out, "  fallbacks  %v\n", p.Fallbacks)
	}
	return nil
}

func runProject(cmd *cobra.Command, _ []string) error {
	in, err := inputFromFlags(cmd.Flags())
	if err != nil {
		return err
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	if err := a.Retrain.Refresh(cmd.Context(), nil); err != nil {
		return fmt.Errorf("failed to load model: %w", err)
	}

	proj, err := a.Engine.Project(cmd.Context(), in)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return writeJSON(out, proj)
	}
	fmt.Fprintf(out, "%-6s %-8s %16s %12s\n", "築年数", "経過年", "価格", "円/㎡")
	for _, pt := range proj.Points {
		fmt.Fprintf(out, "%-6d %-8d %16s %12s\n", pt.BuildingAge, pt.YearsFromNow, yen(pt.Price), yen(pt.PricePerSqm))
	}
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var printer = message.NewPrinter(language.Japanese)

// yen formats a price with thousands separators.
func yen(v float64) string {
	return printer.Sprintf("%.0f", v)
}
