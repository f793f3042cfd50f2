package movie

// PageSize is the fixed number of results the catalog returns per page.
const PageSize = 20

type Genre struct {
	ID   int    `json:"id" yaml:"id" toml:"id"`
	Name string `json:"name" yaml:"name" toml:"name"`
}

// Summary is one catalog entry as returned by a list or search endpoint.
// ID is the only field guaranteed to be meaningful.
type Summary struct {
	ID            int     `json:"id" yaml:"id" toml:"id"`
	Title         string  `json:"title,omitempty" yaml:"title,omitempty" toml:"title,omitempty"`
	OriginalTitle string  `json:"original_title,omitempty" yaml:"original_title,omitempty" toml:"original_title,omitempty"`
	Overview      string  `json:"overview,omitempty" yaml:"overview,omitempty" toml:"overview,omitempty"`
	ReleaseDate   string  `json:"release_date,omitempty" yaml:"release_date,omitempty" toml:"release_date,omitempty"`
	PosterPath    string  `json:"poster_path,omitempty" yaml:"poster_path,omitempty" toml:"poster_path,omitempty"`
	Popularity    float64 `json:"popularity,omitempty" yaml:"popularity,omitempty" toml:"popularity,omitempty"`
	VoteAverage   float64 `json:"vote_average,omitempty" yaml:"vote_average,omitempty" toml:"vote_average,omitempty"`
	GenreIDs      []int   `json:"genre_ids,omitempty" yaml:"genre_ids,omitempty" toml:"genre_ids,omitempty"`
	Genres        []Genre `json:"genres,omitempty" yaml:"genres,omitempty" toml:"genres,omitempty"`
}

// ResultPage is one page of a trending or search listing.
type ResultPage struct {
	Page         int       `json:"page"`
	Results      []Summary `json:"results"`
	TotalPages   int       `json:"total_pages"`
	TotalResults int       `json:"total_results"`
}

type Country struct {
	ISO3166_1 string `json:"iso_3166_1"`
	Name      string `json:"name"`
}

// Detail is the full record returned by the movie lookup endpoint.
type Detail struct {
	Summary
	Tagline             string    `json:"tagline"`
	Runtime             *int      `json:"runtime"`
	OriginalLanguage    string    `json:"original_language"`
	VoteCount           *int      `json:"vote_count"`
	Status              string    `json:"status"`
	Budget              int64     `json:"budget"`
	Revenue             int64     `json:"revenue"`
	BackdropPath        string    `json:"backdrop_path"`
	ProductionCountries []Country `json:"production_countries"`
}

// Snapshot returns the summary part of a detail record, with genre ids
// filled in from the full genre list so list filters keep working.
func (d *Detail) Snapshot() Summary {
	s := d.Summary
	if len(s.GenreIDs) == 0 && len(s.Genres) > 0 {
		s.GenreIDs = make([]int, 0, len(s.Genres))
		for _, g := range s.Genres {
			s.GenreIDs = append(s.GenreIDs, g.ID)
		}
	}
	return s
}
