package screen

import (
	"errors"
	"fmt"

	"github.com/raine/contractor-pro/internal/job"
	"github.com/raine/contractor-pro/internal/llm"
	"github.com/raine/contractor-pro/internal/nav"
)

const (
	AppTitle          = "ContractorPro"
	analyzingText     = "Analyzing site photo..."
	generatingText    = "Generating renovation preview..."
	viewfinderText    = "[Camera Viewfinder]"
	tapToExpandText   = "Tap to view full screen (renovated)"
	missingPhotoError = "No site photo to estimate. Take a new photo from the dashboard."
)

// SampleJobs is the static dashboard list.
func SampleJobs() []DashboardJob {
	return []DashboardJob{
		{ID: "1", Client: "Smith Residence", Type: "Kitchen Upgrade", Status: "In Progress", Price: llm.Dollars(12000)},
		{ID: "2", Client: "Johnson Fencing", Type: "Fence Repair", Status: "Pending", Price: llm.Dollars(2400)},
	}
}

// Render produces the view for the current entry.
func Render(in Input) View {
	switch in.Entry.Screen {
	case nav.Dashboard:
		return renderDashboard(in)
	case nav.Capture:
		return renderCapture(in)
	case nav.Estimate:
		return renderEstimate(in)
	default:
		return View{
			Screen:  in.Entry.Screen,
			Title:   AppTitle,
			Error:   fmt.Sprintf("unknown screen %s", in.Entry.Screen),
			Actions: []Action{{ID: ActionDashboard, Label: "Dashboard"}},
		}
	}
}

func renderDashboard(in Input) View {
	jobs := in.Jobs
	if jobs == nil {
		jobs = SampleJobs()
	}
	return View{
		Screen:  nav.Dashboard,
		Title:   AppTitle,
		Lines:   []string{"Current Jobs"},
		Jobs:    jobs,
		Actions: []Action{{ID: ActionNewEstimate, Label: "New Estimate"}},
	}
}

func renderCapture(in Input) View {
	v := View{
		Screen: nav.Capture,
		Title:  "New Estimate",
		Lines:  []string{viewfinderText},
		Actions: []Action{
			{ID: ActionCapture, Label: "Take Photo"},
			{ID: ActionDashboard, Label: "Back"},
		},
	}
	if in.CaptureErr != nil {
		v.Error = in.CaptureErr.Error()
	}
	return v
}

func renderEstimate(in Input) View {
	back := Action{ID: ActionDashboard, Label: "Back"}

	img, ok := nav.EstimateImage(in.Entry)
	if !ok {
		return View{
			Screen:  nav.Estimate,
			Title:   "Estimate",
			Error:   missingPhotoError,
			Actions: []Action{back},
		}
	}

	loading := View{
		Screen:      nav.Estimate,
		Title:       "Estimate",
		Image:       img,
		Loading:     true,
		LoadingText: []string{analyzingText, generatingText},
		Actions:     []Action{back},
	}
	if in.Job == nil {
		return loading
	}

	st := in.Job
	switch st.Status {
	case job.StatusCompleted:
		return renderResult(in, st, back)
	case job.StatusFailed:
		return View{
			Screen:  nav.Estimate,
			Title:   "Estimate failed",
			Image:   img,
			Error:   failureText(st.Err),
			Actions: []Action{{ID: ActionRetry, Label: "Retry"}, back},
		}
	default:
		return loading
	}
}

func renderResult(in Input, st *job.State, back Action) View {
	v := View{
		Screen:     nav.Estimate,
		Title:      "Estimate",
		Image:      st.Image,
		Rendered:   st.Rendered,
		ImageLabel: tapToExpandText,
		Estimate:   st.Estimate,
		DetailOpen: in.DetailOpen,
	}
	if st.Estimate != nil {
		v.Lines = append(v.Lines,
			fmt.Sprintf("Estimated Total: %s", st.Estimate.Total),
			"",
			"Cost Breakdown",
		)
		for _, item := range st.Estimate.Breakdown {
			v.Lines = append(v.Lines, fmt.Sprintf("%s: %s", item.Label, item.Cost))
		}
	}
	if in.DetailOpen {
		v.Actions = []Action{{ID: ActionCloseDetail, Label: "Close"}, back}
	} else {
		v.Actions = []Action{{ID: ActionOpenDetail, Label: "Full Screen"}, back}
	}
	return v
}

func failureText(err error) string {
	switch {
	case err == nil:
		return "unknown error"
	case errors.Is(err, job.ErrCanceled):
		return "The estimate was cancelled."
	default:
		return err.Error()
	}
}
