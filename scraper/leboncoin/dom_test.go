package leboncoin

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"renov-scraper/models"
)

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

const domFixture = `<html><body>
<nav><a href="/recherche?category=9">Recherche</a><a href="/c/ventes_immobilieres">Immobilier</a></nav>
<div data-qa-id="aditem_container">
  <a href="/ad/ventes_immobilieres/101" title="Longère à restaurer">
    <img src="https://img.example/101-a.jpg"><img data-src="/img/101-b.jpg"><img src="data:image/gif;base64,R0lGOD">
  </a>
  <span data-qa-id="aditem_price">95 000 €</span>
  <p data-qa-id="aditem_location">Brive-la-Gaillarde 19100, Corrèze</p>
</div>
<div data-qa-id="aditem_container">
  <a href="/ad/ventes_immobilieres/101#photos">doublon</a>
</div>
<article>
  <a href="https://www.leboncoin.fr/vi/202.htm?xtor=1" aria-label="Appartement T3 à rafraîchir"></a>
  <p>Quartier gare, 128 000€ frais d'agence inclus</p>
  <p class="adLocation">Tulle (19000)</p>
</article>
<li>
  <a href="/ventes_immobilieres/303.htm"><span>
     Terrain constructible
  </span><span>Naves</span></a>
</li>
<a href="https://other.example/ad/ventes_immobilieres/404">external</a>
</body></html>`

func TestExtractCandidates(t *testing.T) {
	got := ExtractCandidates(mustDoc(t, domFixture), testBase, 40)
	if len(got) != 3 {
		t.Fatalf("expected 3 candidates, got %d: %+v", len(got), got)
	}

	first := got[0]
	if first.ID != "101" || first.URL != testBase+"/ad/ventes_immobilieres/101" {
		t.Errorf("first id/url = %s %s", first.ID, first.URL)
	}
	if first.Title != "Longère à restaurer" {
		t.Errorf("first title = %q", first.Title)
	}
	if first.Price != 95000 {
		t.Errorf("first price = %d", first.Price)
	}
	if first.City != "Brive-la-Gaillarde" {
		t.Errorf("first city = %q", first.City)
	}
	if len(first.Images) != 2 || first.Images[1] != testBase+"/img/101-b.jpg" {
		t.Errorf("first images = %v", first.Images)
	}
	if first.PropertyType != models.PropertyHouse {
		t.Errorf("first type = %q", first.PropertyType)
	}

	second := got[1]
	if second.ID != "202" || second.Title != "Appartement T3 à rafraîchir" {
		t.Errorf("second = %+v", second)
	}
	if second.Price != 128000 || second.City != "Tulle" {
		t.Errorf("second price/city = %d %q", second.Price, second.City)
	}
	if second.PropertyType != models.PropertyApartment {
		t.Errorf("second type = %q", second.PropertyType)
	}

	third := got[2]
	if third.ID != "303" || third.Title != "Terrain constructible" || third.Price != 0 {
		t.Errorf("third = %+v", third)
	}
}

func TestExtractCandidatesPriceIgnoresNeighbouringNumbers(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"surface before price", `<a href="/vi/42.htm">Maison à rénover 75m2</a> 150 000 €`, 150000},
		{"room count before price", `<a href="/vi/42.htm">T3 à rafraîchir</a> 3 pièces 98 500€`, 98500},
		{"non-breaking separators", "<a href=\"/vi/42.htm\">Grange</a> 1\u00a0250\u00a0000\u00a0€", 1250000},
		{"dotted thousands", `<a href="/vi/42.htm">Longère</a> 210.000 €`, 210000},
		{"unformatted", `<a href="/vi/42.htm">Ruine</a> 45000€`, 45000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := mustDoc(t, "<html><body><article>"+tt.body+"</article></body></html>")
			got := ExtractCandidates(doc, testBase, 40)
			if len(got) != 1 {
				t.Fatalf("expected 1 candidate, got %d", len(got))
			}
			if got[0].Price != tt.want {
				t.Errorf("Price = %d; want %d", got[0].Price, tt.want)
			}
		})
	}
}

func TestExtractCandidatesLimit(t *testing.T) {
	var b strings.Builder
	b.WriteString("<html><body>")
	for i := 0; i < 60; i++ {
		b.WriteString(`<article><a href="/vi/`)
		b.WriteString(strings.Repeat("1", 3) + string(rune('0'+i%10)) + string(rune('0'+i/10)))
		b.WriteString(`.htm">Maison</a></article>`)
	}
	b.WriteString("</body></html>")

	if got := ExtractCandidates(mustDoc(t, b.String()), testBase, 40); len(got) != 40 {
		t.Errorf("expected cap of 40, got %d", len(got))
	}
	if got := ExtractCandidates(mustDoc(t, b.String()), testBase, 0); len(got) != 0 {
		t.Errorf("expected no candidates with zero limit, got %d", len(got))
	}
}

func TestExtractCandidatesNoAnchors(t *testing.T) {
	got := ExtractCandidates(mustDoc(t, "<html><body><p>Aucune annonce</p></body></html>"), testBase, 40)
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", got)
	}
}

func TestExtractCandidatesSkipsListingSubpages(t *testing.T) {
	html := `<html><body><article>
  <a href="/ad/ventes_immobilieres/301">Maison à rénover</a>
  <a href="/ad/ventes_immobilieres/301/photos">Voir les photos</a>
  <a href="/ad/ventes_immobilieres/302/signaler">Signaler</a>
</article></body></html>`

	got := ExtractCandidates(mustDoc(t, html), testBase, 40)
	if len(got) != 1 || got[0].ID != "301" {
		t.Errorf("expected only the listing itself, got %+v", got)
	}
}
