package transfer

// ThreadsIDResponse is returned by both the container create and publish calls.
type ThreadsIDResponse struct {
	ID string `json:"id"`
}

type ThreadsCreateRequest struct {
	MediaType   string `json:"media_type"`
	Text        string `json:"text"`
	AccessToken string `json:"access_token"`
}

type ThreadsPublishRequest struct {
	CreationID  string `json:"creation_id"`
	AccessToken string `json:"access_token"`
}

type ThreadsDeleteRequest struct {
	AccessToken string `json:"access_token"`
}

type ThreadsRefreshResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type ThreadsInsightsResponse struct {
	Data []ThreadsInsightMetric `json:"data"`
}

type ThreadsInsightMetric struct {
	Name       string `json:"name"`
	Period     string `json:"period"`
	TotalValue *struct {
		Value int64 `json:"value"`
	} `json:"total_value,omitempty"`
	Values []struct {
		Value   int64  `json:"value"`
		EndTime string `json:"end_time,omitempty"`
	} `json:"values,omitempty"`
}

// Sum prefers the aggregate total_value and falls back to summing the series.
func (m ThreadsInsightMetric) Sum() int64 {
	if m.TotalValue != nil {
		return m.TotalValue.Value
	}
	var total int64
	for _, v := range m.Values {
		total += v.Value
	}
	return total
}

// GraphErrorResponse is the error envelope used by Meta's Graph APIs.
type GraphErrorResponse struct {
	Error struct {
		Message      string `json:"message"`
		Type         string `json:"type"`
		Code         int    `json:"code"`
		ErrorSubcode int    `json:"error_subcode"`
		FbtraceID    string `json:"fbtrace_id"`
	} `json:"error"`
}
