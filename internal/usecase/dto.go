package usecase

import "github.com/xavierca1/leadscout/internal/entity"

type SubmitSearchInput struct {
	Name        string   `json:"search_name"`
	Industry    string   `json:"industry"`
	Location    string   `json:"location"`
	CompanySize string   `json:"company_size"`
	Keywords    []string `json:"keywords"`
	MaxResults  int      `json:"max_results"`
	Owner       string   `json:"-"`
}

func (in SubmitSearchInput) Params() entity.SearchParams {
	return entity.SearchParams{
		Industry:    in.Industry,
		Location:    in.Location,
		CompanySize: in.CompanySize,
		Keywords:    in.Keywords,
		MaxResults:  in.MaxResults,
	}
}

type SubmitSearchOutput struct {
	ID     string              `json:"id"`
	Name   string              `json:"search_name"`
	Status entity.SearchStatus `json:"status"`
	Msg    string              `json:"msg"`
}

// RunSearchOutput é o resultado do ciclo de vida: 200 com leadsFound ou 500 com erro.
type RunSearchOutput struct {
	StatusCode int    `json:"statusCode"`
	LeadsFound int    `json:"leadsFound"`
	Message    string `json:"message,omitempty"`
	Error      string `json:"error,omitempty"`
}

func (o *RunSearchOutput) Succeeded() bool {
	return o != nil && o.StatusCode == 200
}

type CreateTemplateInput struct {
	Name        string   `json:"template_name"`
	Description string   `json:"description"`
	Industry    string   `json:"industry"`
	Location    string   `json:"location"`
	CompanySize string   `json:"company_size"`
	Keywords    []string `json:"keywords"`
	Owner       string   `json:"-"`
}

func (in CreateTemplateInput) Params() entity.SearchParams {
	return entity.SearchParams{
		Industry:    in.Industry,
		Location:    in.Location,
		CompanySize: in.CompanySize,
		Keywords:    in.Keywords,
	}
}

type RunTemplateInput struct {
	TemplateID string `json:"template_id"`
	MaxResults int    `json:"max_results"`
	Owner      string `json:"-"`
}
