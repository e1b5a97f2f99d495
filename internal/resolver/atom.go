package resolver

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/0xintuition/intuition-indexer/internal/domain"
	"github.com/0xintuition/intuition-indexer/internal/resilience"
	"github.com/0xintuition/intuition-indexer/internal/store"
)

// schemaOrgContexts are the @context values under which a JSON payload is
// interpreted as schema.org metadata.
var schemaOrgContexts = []string{
	"https://schema.org",
	"https://schema.org/",
	"http://schema.org",
	"http://schema.org/",
}

// resolveAtom fetches and parses an atom's off-chain payload. An
// `ipfs://` payload is fetched from the gateway first; anything else is
// treated as candidate JSON directly. A recognized schema.org @type
// resolves the atom; anything else marks it Failed.
func (w *Worker) resolveAtom(ctx context.Context, atom *domain.Atom) error {
	data := ""
	if atom.Data != nil {
		data = strings.TrimSpace(*atom.Data)
	}

	if hash, ok := strings.CutPrefix(data, "ipfs://"); ok {
		fetched, err := w.fetchIPFS(ctx, hash)
		if err != nil {
			return fmt.Errorf("fetch ipfs %s: %w", hash, err)
		}
		data = fetched
	}

	resolved, err := w.applySchemaOrg(ctx, atom, data)
	if err != nil {
		return err
	}
	if !resolved {
		if err := w.markAtom(ctx, atom, domain.ResolvingFailed); err != nil {
			return err
		}
		return unresolvableError{fmt.Errorf("atom %s payload is not recognizable metadata", atom.ID.String())}
	}
	return nil
}

// fetchIPFS retrieves a content-addressed payload from the configured
// gateway, with bounded retries and the UTF-8 BOM stripped.
func (w *Worker) fetchIPFS(ctx context.Context, hash string) (string, error) {
	url := strings.TrimSuffix(w.gatewayURL, "/") + "/" + hash

	var body []byte
	err := resilience.RetryHTTP(ctx, w.retry, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := w.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("gateway status %d", resp.StatusCode)
		}
		body, err = io.ReadAll(resp.Body)
		return err
	})
	if err != nil {
		return "", err
	}
	return strings.ReplaceAll(string(body), "\uFEFF", ""), nil
}

// applySchemaOrg parses the payload as schema.org JSON and, on a
// recognized @type, upserts the typed side-table row and resolves the
// atom. It reports whether the payload was recognized.
func (w *Worker) applySchemaOrg(ctx context.Context, atom *domain.Atom, data string) (bool, error) {
	if !gjson.Valid(data) {
		return false, nil
	}
	parsed := gjson.Parse(data)

	context := parsed.Get("@context").String()
	supported := false
	for _, c := range schemaOrgContexts {
		if context == c {
			supported = true
			break
		}
	}
	if !supported {
		return false, nil
	}

	name := parsed.Get("name").String()
	var image *string
	if img := parsed.Get("image").String(); img != "" {
		image = &img
	}

	var atomType domain.AtomType
	var emoji string

	err := w.store.InTx(ctx, func(ex store.Execer) error {
		switch parsed.Get("@type").String() {
		case "Person":
			atomType, emoji = domain.AtomTypePerson, "\U0001F464"
			return w.store.UpsertPerson(ctx, ex, w.schema, &domain.Person{
				ID: atom.ID, Name: name, Image: image,
			})
		case "Organization":
			atomType, emoji = domain.AtomTypeOrganization, "\U0001F3E2"
			return w.store.UpsertOrganization(ctx, ex, w.schema, &domain.Organization{
				ID: atom.ID, Name: name, Image: image,
			})
		case "Thing":
			atomType, emoji = domain.AtomTypeThing, "\U0001F9E9"
			var description *string
			if d := parsed.Get("description").String(); d != "" {
				description = &d
			}
			return w.store.UpsertThing(ctx, ex, w.schema, &domain.Thing{
				ID: atom.ID, Name: name, Description: description, Image: image,
			})
		case "Book":
			atomType, emoji = domain.AtomTypeBook, "\U0001F4DA"
			var author *string
			if a := parsed.Get("author").String(); a != "" {
				author = &a
			}
			return w.store.UpsertBook(ctx, ex, w.schema, &domain.Book{
				ID: atom.ID, Name: name, Author: author, Image: image,
			})
		default:
			return nil
		}
	})
	if err != nil {
		return false, err
	}
	if atomType == "" {
		return false, nil
	}

	atom.AtomType = atomType
	atom.Label = &name
	atom.Emoji = &emoji
	atom.Image = image
	atom.ResolvingStatus = domain.ResolvingResolved
	if err := w.store.InTx(ctx, func(ex store.Execer) error {
		return w.store.UpsertAtom(ctx, ex, w.schema, atom)
	}); err != nil {
		return false, err
	}

	if image != nil {
		if err := w.enqueuePinJob(ctx, *image); err != nil {
			return false, err
		}
	}
	return true, nil
}

// markAtom updates only the atom's resolution state.
func (w *Worker) markAtom(ctx context.Context, atom *domain.Atom, status domain.ResolvingStatus) error {
	atom.ResolvingStatus = status
	return w.store.InTx(ctx, func(ex store.Execer) error {
		return w.store.UpsertAtom(ctx, ex, w.schema, atom)
	})
}
