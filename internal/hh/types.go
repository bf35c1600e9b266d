package hh

// UserInfo is the response of the /me endpoint. It doubles as the resolved
// identity for bearer-token validation: if /me answers 200, the token is live.
type UserInfo struct {
	ID          string `json:"id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	MiddleName  string `json:"middle_name,omitempty"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
	IsApplicant bool   `json:"is_applicant"`
	IsEmployer  bool   `json:"is_employer"`
}

// Salary is a vacancy salary range. From/To are nil when the employer did not
// disclose a bound.
type Salary struct {
	From     *int   `json:"from"`
	To       *int   `json:"to"`
	Currency string `json:"currency"`
	Gross    bool   `json:"gross"`
}

// Area is an hh.ru region tree node.
type Area struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Areas []Area `json:"areas,omitempty"`
}

// Employer is the company attached to a vacancy or returned by /employers/{id}.
type Employer struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	URL           string `json:"url,omitempty"`
	AlternateURL  string `json:"alternate_url,omitempty"`
	SiteURL       string `json:"site_url,omitempty"`
	Trusted       bool   `json:"trusted"`
	Description   string `json:"description,omitempty"`
	OpenVacancies int    `json:"open_vacancies,omitempty"`
}

// Vacancy is a single vacancy, in both the list (short) and detail shapes.
// Description and BrandedDescription are HTML in the detail shape.
type Vacancy struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	AlternateURL       string    `json:"alternate_url"`
	Salary             *Salary   `json:"salary"`
	Area               *Area     `json:"area"`
	Employer           *Employer `json:"employer"`
	PublishedAt        string    `json:"published_at"`
	Archived           bool      `json:"archived"`
	Description        string    `json:"description,omitempty"`
	BrandedDescription string    `json:"branded_description,omitempty"`
	Schedule           *IDName   `json:"schedule,omitempty"`
	Experience         *IDName   `json:"experience,omitempty"`
	Employment         *IDName   `json:"employment,omitempty"`
	KeySkills          []struct {
		Name string `json:"name"`
	} `json:"key_skills,omitempty"`
	Snippet *struct {
		Requirement    string `json:"requirement"`
		Responsibility string `json:"responsibility"`
	} `json:"snippet,omitempty"`
}

// IDName is the generic id/name pair hh.ru uses for dictionary values.
type IDName struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// VacancyPage is one page of vacancy search results.
type VacancyPage struct {
	Items   []Vacancy `json:"items"`
	Found   int       `json:"found"`
	Pages   int       `json:"pages"`
	Page    int       `json:"page"`
	PerPage int       `json:"per_page"`
}

// Resume is an applicant resume as returned by /resumes/mine and /resumes/{id}.
type Resume struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	FirstName    string   `json:"first_name"`
	LastName     string   `json:"last_name"`
	Age          *int     `json:"age,omitempty"`
	Area         *Area    `json:"area,omitempty"`
	Salary       *Salary  `json:"salary,omitempty"`
	UpdatedAt    string   `json:"updated_at"`
	AlternateURL string   `json:"alternate_url,omitempty"`
	Status       *IDName  `json:"status,omitempty"`
	TotalViews   int      `json:"total_views,omitempty"`
	NewViews     int      `json:"new_views,omitempty"`
	Skills       string   `json:"skills,omitempty"`
	SkillSet     []string `json:"skill_set,omitempty"`
	Experience   []struct {
		Company  string `json:"company"`
		Position string `json:"position"`
		Start    string `json:"start"`
		End      string `json:"end,omitempty"`
	} `json:"experience,omitempty"`
}

// ResumePage is one page of the caller's resumes.
type ResumePage struct {
	Items []Resume `json:"items"`
	Found int      `json:"found"`
	Page  int      `json:"page"`
	Pages int      `json:"pages"`
}

// Negotiation is one application/response thread between applicant and employer.
type Negotiation struct {
	ID               string   `json:"id"`
	State            *IDName  `json:"state"`
	CreatedAt        string   `json:"created_at"`
	UpdatedAt        string   `json:"updated_at"`
	Vacancy          *Vacancy `json:"vacancy,omitempty"`
	Resume           *Resume  `json:"resume,omitempty"`
	HasUpdates       bool     `json:"has_updates"`
	ViewedByOpponent bool     `json:"viewed_by_opponent"`
}

// NegotiationPage is one page of negotiations.
type NegotiationPage struct {
	Items []Negotiation `json:"items"`
	Found int           `json:"found"`
	Page  int           `json:"page"`
	Pages int           `json:"pages"`
}

// NegotiationMessage is one message inside a negotiation thread.
type NegotiationMessage struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	CreatedAt string `json:"created_at"`
	Author    *struct {
		ParticipantType string `json:"participant_type"`
	} `json:"author,omitempty"`
}

// MessagePage is one page of negotiation messages.
type MessagePage struct {
	Items []NegotiationMessage `json:"items"`
	Found int                  `json:"found"`
}

// SkillSuggest is one entry from the /suggests/skill_set endpoint.
type SkillSuggest struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}
