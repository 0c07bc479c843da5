package wikipedia

// DTOs for the MediaWiki action API (action=query&prop=revisions,
// formatversion=2) and the REST v1 page summary endpoint.

type RevisionsResponse struct {
	BatchComplete bool         `json:"batchcomplete,omitempty"`
	Continue      *ContinueDto `json:"continue,omitempty"`
	Query         *QueryDto    `json:"query,omitempty"`
	Error         *ErrorDto    `json:"error,omitempty"`
}

type ContinueDto struct {
	RvContinue string `json:"rvcontinue,omitempty"`
	Continue   string `json:"continue,omitempty"`
}

type QueryDto struct {
	Pages []PageDto `json:"pages,omitempty"`
}

type PageDto struct {
	PageId    int64         `json:"pageid,omitempty"`
	Title     string        `json:"title,omitempty"`
	Missing   bool          `json:"missing,omitempty"`
	Revisions []RevisionDto `json:"revisions,omitempty"`
}

type RevisionDto struct {
	RevId     int64  `json:"revid"`
	Timestamp string `json:"timestamp"`
	Size      int    `json:"size"`
	User      string `json:"user,omitempty"`
}

type ErrorDto struct {
	Code string `json:"code,omitempty"`
	Info string `json:"info,omitempty"`
}

type SummaryDto struct {
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Extract     string          `json:"extract,omitempty"`
	Thumbnail   *ThumbnailDto   `json:"thumbnail,omitempty"`
	ContentUrls *ContentUrlsDto `json:"content_urls,omitempty"`
}

type ThumbnailDto struct {
	Source string `json:"source,omitempty"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

type ContentUrlsDto struct {
	Desktop *DesktopDto `json:"desktop,omitempty"`
}

type DesktopDto struct {
	Page string `json:"page,omitempty"`
}

// Revisions returns the revision list of the first page in the batch,
// or nil when the response carries none.
func (r *RevisionsResponse) Revisions() []RevisionDto {
	if r == nil || r.Query == nil || len(r.Query.Pages) == 0 {
		return nil
	}
	return r.Query.Pages[0].Revisions
}

// ContinueToken returns the continuation pair, both empty when the
// response is terminal.
func (r *RevisionsResponse) ContinueToken() (token, param string) {
	if r == nil || r.Continue == nil {
		return "", ""
	}
	return r.Continue.RvContinue, r.Continue.Continue
}

// Terminal reports whether the response is an empty dead end: no
// revisions and no continuation. Such responses are never cached.
func (r *RevisionsResponse) Terminal() bool {
	token, _ := r.ContinueToken()
	return len(r.Revisions()) == 0 && token == ""
}
