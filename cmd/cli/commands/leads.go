package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/milescrape/milescrape/internal/db/models"
	"github.com/milescrape/milescrape/pkg/types"
)

// Lead flag names
const (
	flagLeadID    = "id"
	flagLeadScan  = "scan-id"
	flagMilestone = "milestone"
	flagLeadPlace = "location"
	flagMinScore  = "min-score"
	flagSort      = "sort"
)

// leadOutput represents the filtered output for a lead
type leadOutput struct {
	ID            string `json:"id"`
	ScanID        string `json:"scan_id"`
	CompanyName   string `json:"company_name"`
	MilestoneType string `json:"milestone_type"`
	Score         int    `json:"score"`
	Location      string `json:"location,omitempty"`
	Seniority     string `json:"seniority,omitempty"`
	SourceURL     string `json:"source_url,omitempty"`
	SourceText    string `json:"source_text,omitempty"`
	Discovered    string `json:"discovered_at"`
}

// leadListOutput represents the filtered output for a list of leads
type leadListOutput struct {
	Leads []leadOutput `json:"leads"`
}

func init() {
	leadsCmd.AddCommand(listLeadsCmd)
	leadsCmd.AddCommand(getLeadCmd)

	// Add flags for list
	listLeadsCmd.Flags().String(flagLeadScan, "", "Only leads from this scan")
	listLeadsCmd.Flags().StringP(flagMilestone, "m", "", "Only leads of this milestone type")
	listLeadsCmd.Flags().StringP(flagLeadPlace, "l", "", "Only leads whose location contains this text")
	listLeadsCmd.Flags().Int(flagMinScore, 0, "Only leads scoring at least this much")
	listLeadsCmd.Flags().String(flagSort, string(models.LeadSortRecent), "Sort order (recent or score)")
	listLeadsCmd.Flags().IntP(flagPage, "g", 1, "Page number for pagination")

	// Add flags for get
	getLeadCmd.Flags().StringP(flagLeadID, "i", "", "Lead ID")
	_ = getLeadCmd.MarkFlagRequired(flagLeadID)
}

var leadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "Browse the leads produced by scans",
}

var listLeadsCmd = &cobra.Command{
	Use:   "list",
	Short: "List leads",
	RunE: func(cmd *cobra.Command, _ []string) error {
		flags := cmd.Flags()
		params := types.LeadListParams{}
		params.ScanID, _ = flags.GetString(flagLeadScan)
		params.MilestoneType, _ = flags.GetString(flagMilestone)
		params.Location, _ = flags.GetString(flagLeadPlace)
		params.MinScore, _ = flags.GetInt(flagMinScore)
		params.Sort, _ = flags.GetString(flagSort)
		params.Page, _ = flags.GetInt(flagPage)

		leads, err := apiClient.ListLeads(context.Background(), params)
		if err != nil {
			return fmt.Errorf("error listing leads: %w", err)
		}

		out := leadListOutput{Leads: make([]leadOutput, 0, len(leads))}
		for _, lead := range leads {
			out.Leads = append(out.Leads, toLeadOutput(lead, false))
		}
		return printJSON(out)
	},
}

var getLeadCmd = &cobra.Command{
	Use:   "get",
	Short: "Show a lead including its source text",
	RunE: func(cmd *cobra.Command, _ []string) error {
		id, err := cmd.Flags().GetString(flagLeadID)
		if err != nil {
			return fmt.Errorf("error getting lead ID flag: %w", err)
		}

		lead, err := apiClient.GetLead(context.Background(), id)
		if err != nil {
			return fmt.Errorf("error getting lead: %w", err)
		}
		return printJSON(toLeadOutput(lead, true))
	},
}

func toLeadOutput(lead models.Lead, withText bool) leadOutput {
	out := leadOutput{
		ID:            lead.ID,
		ScanID:        lead.ScanID,
		CompanyName:   lead.CompanyName,
		MilestoneType: lead.MilestoneType.String(),
		Score:         lead.Score,
		Location:      lead.Location,
		Seniority:     lead.Seniority.String(),
		SourceURL:     lead.SourceURL,
		Discovered:    lead.DiscoveredAt.Format(timeFormat),
	}
	if withText {
		out.SourceText = lead.SourceText
	}
	return out
}
