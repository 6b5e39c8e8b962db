package transfer

type TweetRequest struct {
	Text string `json:"text"`
}

type TweetResponse struct {
	Data struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"data"`
}

type TwitterErrorResponse struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Type   string `json:"type"`
	Status int    `json:"status"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func (e TwitterErrorResponse) Message() string {
	switch {
	case e.Detail != "":
		return e.Detail
	case len(e.Errors) > 0:
		return e.Errors[0].Message
	default:
		return e.Title
	}
}
