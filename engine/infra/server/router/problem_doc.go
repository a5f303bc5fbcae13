package router

// Problem models an RFC 7807 error envelope for API responses.
type Problem struct {
	Type     string         `json:"type,omitempty"`
	Title    string         `json:"title"`
	Status   int            `json:"status"`
	Detail   string         `json:"detail,omitempty"`
	Instance string         `json:"instance,omitempty"`
	Code     string         `json:"code,omitempty"`
	Extras   map[string]any `json:"-"`
}

const problemContentType = "application/problem+json"

func (p *Problem) body() map[string]any {
	body := make(map[string]any, len(p.Extras)+6)
	for k, v := range p.Extras {
		body[k] = v
	}
	body["type"] = p.Type
	body["title"] = p.Title
	body["status"] = p.Status
	if p.Detail != "" {
		body["detail"] = p.Detail
	}
	if p.Instance != "" {
		body["instance"] = p.Instance
	}
	if p.Code != "" {
		body["code"] = p.Code
	}
	return body
}
