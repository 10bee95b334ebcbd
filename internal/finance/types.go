package finance

import "time"

const (
	chartCacheTTL   = 60 * time.Second
	historyCacheTTL = 60 * time.Second

	defaultHistoryDays = 30
	previewLen         = 120
)

// chartResult is one symbol of a v8 chart response.
type chartResult struct {
	Meta struct {
		Symbol   string `json:"symbol"`
		Currency string `json:"currency"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Close []float64 `json:"close"`
		} `json:"quote"`
	} `json:"indicators"`
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  any           `json:"error"`
	} `json:"chart"`
}

// closes returns the raw timestamps and closes of the first result.
func (r chartResponse) closes() ([]int64, []float64, error) {
	if len(r.Chart.Result) == 0 || len(r.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, nil, errNoData
	}
	res := r.Chart.Result[0]
	return res.Timestamp, res.Indicators.Quote[0].Close, nil
}

func (r chartResponse) currency() string {
	if len(r.Chart.Result) == 0 {
		return ""
	}
	return r.Chart.Result[0].Meta.Currency
}

// sparkResponse is the v7 spark fallback.
type sparkResponse struct {
	Spark struct {
		Result []struct {
			Symbol   string `json:"symbol"`
			Response []struct {
				Timestamp []int64   `json:"timestamp"`
				Close     []float64 `json:"close"`
			} `json:"response"`
		} `json:"result"`
		Error any `json:"error"`
	} `json:"spark"`
}

func (r sparkResponse) closes() ([]int64, []float64, error) {
	if len(r.Spark.Result) == 0 || len(r.Spark.Result[0].Response) == 0 {
		return nil, nil, errNoData
	}
	resp := r.Spark.Result[0].Response[0]
	return resp.Timestamp, resp.Close, nil
}
