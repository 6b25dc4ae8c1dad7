package commands

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/sevaops/bskdash/errors"
)

// VerifyCmd probes a deployed bskdash instance's endpoints
var VerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify a deployed instance answers on every endpoint",
	Long: `Probe the API surface of a running bskdash deployment: banner, health,
the four entity collections, single-record misses, and the analytics
endpoint. Exits non-zero when any check fails.`,
	RunE: runVerify,
}

var verifyBaseURL string

func init() {
	VerifyCmd.Flags().StringVar(&verifyBaseURL, "base-url", "http://localhost:8000", "Base URL of the deployment to verify")
}

type endpointCheck struct {
	name       string
	path       string
	wantStatus int
}

func runVerify(cmd *cobra.Command, args []string) error {
	base := strings.TrimSuffix(verifyBaseURL, "/")
	client := &http.Client{Timeout: 30 * time.Second}

	pterm.DefaultSection.Println("BSK deployment verification")
	pterm.Info.Printfln("Target: %s", base)

	checks := []endpointCheck{
		{"API banner", "/", http.StatusOK},
		{"Health", "/health", http.StatusOK},
		{"Service list", "/services/?limit=5", http.StatusOK},
		{"BSK list", "/bsk/?limit=5", http.StatusOK},
		{"DEO list", "/deo/?limit=5", http.StatusOK},
		{"Provision list", "/provisions/?limit=5", http.StatusOK},
		{"Underperforming BSKs", "/underperforming_bsks/?num_bsks=5&sort_order=asc", http.StatusOK},
		{"Missing service is 404", "/services/999999999", http.StatusNotFound},
		{"Bad sort order is 400", "/underperforming_bsks/?sort_order=sideways", http.StatusBadRequest},
	}

	failed := 0
	for _, check := range checks {
		if err := probe(client, base+check.path, check.wantStatus); err != nil {
			pterm.Error.Printfln("%s: %v", check.name, err)
			failed++
			continue
		}
		pterm.Success.Printfln("%s", check.name)
	}

	if err := probeHealthPayload(client, base); err != nil {
		pterm.Error.Printfln("Health payload: %v", err)
		failed++
	} else {
		pterm.Success.Println("Health payload reports loaded data")
	}

	if failed > 0 {
		return errors.Newf("%d of %d checks failed", failed, len(checks)+1)
	}
	pterm.Success.Println("All checks passed")
	return nil
}

func probe(client *http.Client, url string, wantStatus int) error {
	resp, err := client.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		return fmt.Errorf("got HTTP %d, want %d", resp.StatusCode, wantStatus)
	}
	return nil
}

// probeHealthPayload checks the health endpoint's body, not just its status:
// a deployment that answers 200 with no data loaded is not healthy enough.
func probeHealthPayload(client *http.Client, base string) error {
	resp, err := client.Get(base + "/health")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var health struct {
		Status        string `json:"status"`
		DataLoaded    bool   `json:"data_loaded"`
		TotalServices int    `json:"total_services"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return fmt.Errorf("decode health payload: %w", err)
	}

	if health.Status != "healthy" {
		return fmt.Errorf("status is %q", health.Status)
	}
	if !health.DataLoaded {
		return fmt.Errorf("analytics data is not loaded (total_services=%d)", health.TotalServices)
	}
	return nil
}
