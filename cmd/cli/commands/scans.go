package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/datatypes"

	"github.com/milescrape/milescrape/internal/db/models"
	"github.com/milescrape/milescrape/pkg/types"
)

// Scan flag names
const (
	flagScanID     = "id"
	flagLocation   = "location"
	flagRadius     = "radius"
	flagLookback   = "lookback"
	flagMilestones = "milestones"
	flagSeniority  = "seniority"
	flagSizeMin    = "size-min"
	flagSizeMax    = "size-max"
	flagScanStatus = "status"
	flagPage       = "page"
)

const timeFormat = "2006-01-02 15:04:05"

// scanOutput represents the filtered output for a scan
type scanOutput struct {
	ID         string           `json:"id"`
	Status     string           `json:"status"`
	Progress   int              `json:"progress"`
	Location   string           `json:"location"`
	Stats      models.ScanStats `json:"stats"`
	Error      string           `json:"error,omitempty"`
	Created    string           `json:"created_at"`
	Started    string           `json:"started_at,omitempty"`
	Ended      string           `json:"ended_at,omitempty"`
	Log        []string         `json:"log,omitempty"`
	Milestones []string         `json:"milestone_types,omitempty"`
}

// scanListOutput represents the filtered output for a list of scans
type scanListOutput struct {
	Scans []scanOutput `json:"scans"`
}

func init() {
	scansCmd.AddCommand(startScanCmd)
	scansCmd.AddCommand(cancelScanCmd)
	scansCmd.AddCommand(getScanCmd)
	scansCmd.AddCommand(listScansCmd)
	scansCmd.AddCommand(activeScansCmd)

	// Add flags for start
	startScanCmd.Flags().StringP(flagLocation, "l", "", "Place to scan around, e.g. \"Austin, TX\"")
	startScanCmd.Flags().Float64P(flagRadius, "r", 25, "Search radius in kilometres")
	startScanCmd.Flags().IntP(flagLookback, "b", 30, "Only consider milestones from the last N days")
	startScanCmd.Flags().StringSliceP(flagMilestones, "m", nil, "Milestone types to look for (default: all)")
	startScanCmd.Flags().StringSlice(flagSeniority, nil, "Seniority levels to keep (default: any)")
	startScanCmd.Flags().Int(flagSizeMin, 0, "Minimum company size")
	startScanCmd.Flags().Int(flagSizeMax, 0, "Maximum company size")
	_ = startScanCmd.MarkFlagRequired(flagLocation)

	// Add flags for cancel and get
	cancelScanCmd.Flags().StringP(flagScanID, "i", "", "Scan ID")
	_ = cancelScanCmd.MarkFlagRequired(flagScanID)
	getScanCmd.Flags().StringP(flagScanID, "i", "", "Scan ID")
	_ = getScanCmd.MarkFlagRequired(flagScanID)

	// Add flags for list
	listScansCmd.Flags().String(flagScanStatus, "", "Filter by status (pending, in_progress, completed, failed, cancelled)")
	listScansCmd.Flags().IntP(flagPage, "g", 1, "Page number for pagination")
}

var scansCmd = &cobra.Command{
	Use:   "scans",
	Short: "Start, cancel and inspect scans",
}

var startScanCmd = &cobra.Command{
	Use:   "start",
	Short: "Queue a new scan",
	RunE: func(cmd *cobra.Command, _ []string) error {
		req, err := startRequestFromFlags(cmd)
		if err != nil {
			return err
		}

		resp, err := apiClient.StartScan(context.Background(), req)
		if err != nil {
			return fmt.Errorf("error starting scan: %w", err)
		}
		return printJSON(resp)
	},
}

var cancelScanCmd = &cobra.Command{
	Use:   "cancel",
	Short: "Cancel a pending or running scan",
	RunE: func(cmd *cobra.Command, _ []string) error {
		id, err := cmd.Flags().GetString(flagScanID)
		if err != nil {
			return fmt.Errorf("error getting scan ID flag: %w", err)
		}

		resp, err := apiClient.CancelScan(context.Background(), id)
		if err != nil {
			return fmt.Errorf("error cancelling scan: %w", err)
		}
		return printJSON(resp)
	},
}

var getScanCmd = &cobra.Command{
	Use:   "get",
	Short: "Show the status, counters and log of a scan",
	RunE: func(cmd *cobra.Command, _ []string) error {
		id, err := cmd.Flags().GetString(flagScanID)
		if err != nil {
			return fmt.Errorf("error getting scan ID flag: %w", err)
		}

		scan, err := apiClient.GetScan(context.Background(), id)
		if err != nil {
			return fmt.Errorf("error getting scan: %w", err)
		}
		return printJSON(toScanOutput(scan, true))
	},
}

var listScansCmd = &cobra.Command{
	Use:   "list",
	Short: "List scans, newest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		status, _ := cmd.Flags().GetString(flagScanStatus)
		page, _ := cmd.Flags().GetInt(flagPage)

		scans, err := apiClient.ListScans(context.Background(), types.ScanListParams{Status: status, Page: page})
		if err != nil {
			return fmt.Errorf("error listing scans: %w", err)
		}
		return printJSON(toScanListOutput(scans))
	},
}

var activeScansCmd = &cobra.Command{
	Use:   "active",
	Short: "List pending and running scans",
	RunE: func(_ *cobra.Command, _ []string) error {
		scans, err := apiClient.ListActiveScans(context.Background())
		if err != nil {
			return fmt.Errorf("error listing active scans: %w", err)
		}
		return printJSON(toScanListOutput(scans))
	},
}

// startRequestFromFlags builds a scan request. Values are checked by the server.
func startRequestFromFlags(cmd *cobra.Command) (types.StartScanRequest, error) {
	flags := cmd.Flags()
	location, _ := flags.GetString(flagLocation)
	radius, _ := flags.GetFloat64(flagRadius)
	lookback, _ := flags.GetInt(flagLookback)
	milestones, _ := flags.GetStringSlice(flagMilestones)
	seniority, _ := flags.GetStringSlice(flagSeniority)

	req := types.StartScanRequest{
		Location:     location,
		RadiusKm:     radius,
		LookbackDays: lookback,
	}

	if len(milestones) == 0 {
		req.MilestoneTypes = datatypes.JSONSlice[models.MilestoneType](models.AllMilestoneTypes)
	}
	for _, m := range milestones {
		mt, err := models.ParseMilestoneType(m)
		if err != nil {
			return req, err
		}
		req.MilestoneTypes = append(req.MilestoneTypes, mt)
	}
	for _, s := range seniority {
		level, err := models.ParseSeniority(s)
		if err != nil {
			return req, err
		}
		req.SeniorityLevels = append(req.SeniorityLevels, level)
	}

	if flags.Changed(flagSizeMin) {
		v, _ := flags.GetInt(flagSizeMin)
		req.CompanySizeMin = &v
	}
	if flags.Changed(flagSizeMax) {
		v, _ := flags.GetInt(flagSizeMax)
		req.CompanySizeMax = &v
	}
	return req, nil
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(timeFormat)
}

func toScanOutput(scan models.Scan, withLog bool) scanOutput {
	out := scanOutput{
		ID:       scan.ID,
		Status:   scan.Status.String(),
		Progress: scan.Progress,
		Location: scan.Params.Location,
		Stats:    scan.Stats,
		Error:    scan.Error,
		Created:  scan.CreatedAt.Format(timeFormat),
		Started:  formatTime(scan.StartedAt),
		Ended:    formatTime(scan.EndedAt),
	}
	for _, m := range scan.Params.MilestoneTypes {
		out.Milestones = append(out.Milestones, m.String())
	}
	if withLog {
		for _, entry := range scan.Log {
			out.Log = append(out.Log, fmt.Sprintf("%s %s", entry.Timestamp.Format(timeFormat), entry.Message))
		}
	}
	return out
}

func toScanListOutput(scans []models.Scan) scanListOutput {
	out := scanListOutput{Scans: make([]scanOutput, 0, len(scans))}
	for _, scan := range scans {
		out.Scans = append(out.Scans, toScanOutput(scan, false))
	}
	return out
}
