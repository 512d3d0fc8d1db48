// Package profile holds the candidate CV and the operations of the CV builder: field edits,
// AI extraction from raw text, translation of localized fields and reset.
package profile

import (
	"slices"
	"strings"

	"github.com/spigell/nexaforge/internal/i18n"
)

// StorageKey is the key the profile snapshot is persisted under.
const StorageKey = "nexaforge_cv"

type Period struct {
	Start string `json:"start"`
	// End is empty for the current position.
	End string `json:"end,omitempty"`
}

type Experience struct {
	ID          string    `json:"id,omitempty"`
	Company     i18n.Text `json:"company"`
	Role        i18n.Text `json:"role"`
	Period      Period    `json:"period"`
	Location    i18n.Text `json:"location"`
	Description i18n.Text `json:"description"`
}

func (e Experience) Current() bool {
	return strings.TrimSpace(e.Period.End) == ""
}

type Education struct {
	ID          string    `json:"id,omitempty"`
	Institution i18n.Text `json:"institution"`
	Degree      i18n.Text `json:"degree"`
	Year        int       `json:"year,omitempty"`
	GPA         string    `json:"gpa,omitempty"`
}

type Profile struct {
	ID         string       `json:"id"`
	FullName   i18n.Text    `json:"fullName"`
	Email      string       `json:"email"`
	Phone      string       `json:"phone"`
	Location   i18n.Text    `json:"location"`
	Github     string       `json:"github"`
	Linkedin   string       `json:"linkedin"`
	Portfolio  string       `json:"portfolio"`
	Avatar     string       `json:"avatar,omitempty"`
	Skills     []i18n.Text  `json:"skills"`
	Experience []Experience `json:"experience"`
	Education  []Education  `json:"education"`

	VideoVaultCount int      `json:"videoVaultCount,omitempty"`
	MatchScore      *float64 `json:"matchScore,omitempty"`
	AIInsights      string   `json:"aiInsights,omitempty"`
}

// Empty returns the profile a new candidate starts with.
func Empty() Profile {
	return Profile{
		FullName:   i18n.Of(i18n.English, ""),
		Location:   i18n.Of(i18n.English, ""),
		Skills:     []i18n.Text{},
		Experience: []Experience{},
		Education:  []Education{},
	}
}

// Clone returns a copy that shares no slices with p.
func (p Profile) Clone() Profile {
	out := p
	out.Skills = slices.Clone(p.Skills)
	out.Experience = slices.Clone(p.Experience)
	out.Education = slices.Clone(p.Education)
	if p.MatchScore != nil {
		score := *p.MatchScore
		out.MatchScore = &score
	}
	return out
}

// IsEmpty reports whether nothing identifying has been entered yet.
func (p Profile) IsEmpty() bool {
	return p.ID == "" &&
		strings.TrimSpace(i18n.Resolve(p.FullName, i18n.English)) == "" &&
		p.Email == "" &&
		len(p.Skills) == 0 &&
		len(p.Experience) == 0
}

// withDefaults fills what a stored profile left out, such as explicit nulls, from Empty.
func (p Profile) withDefaults() Profile {
	def := Empty()
	if p.FullName.Len() == 0 {
		p.FullName = def.FullName
	}
	if p.Location.Len() == 0 {
		p.Location = def.Location
	}
	if p.Skills == nil {
		p.Skills = def.Skills
	}
	if p.Experience == nil {
		p.Experience = def.Experience
	}
	if p.Education == nil {
		p.Education = def.Education
	}
	return p
}

// mergeOverEmpty lays the extracted values over the empty profile: anything the extraction did
// not provide keeps its default.
func mergeOverEmpty(extracted Profile) Profile {
	out := Empty()

	if extracted.FullName.Len() > 0 {
		out.FullName = extracted.FullName
	}
	if extracted.Location.Len() > 0 {
		out.Location = extracted.Location
	}
	if extracted.Skills != nil {
		out.Skills = slices.Clone(extracted.Skills)
	}
	if extracted.Experience != nil {
		out.Experience = slices.Clone(extracted.Experience)
	}
	if extracted.Education != nil {
		out.Education = slices.Clone(extracted.Education)
	}

	out.Email = extracted.Email
	out.Phone = extracted.Phone
	out.Github = extracted.Github
	out.Linkedin = extracted.Linkedin
	out.Portfolio = extracted.Portfolio
	out.Avatar = extracted.Avatar

	return out
}
