package vtex

import (
	"strings"

	"github.com/nguyentranbao-ct/product-concierge/internal/models"
	"github.com/nguyentranbao-ct/product-concierge/pkg/util"
)

// Raw intelligent-search payload. Only the fields the concierge surfaces
// are decoded; everything else stays on the backend.
type searchResponse struct {
	Products []rawProduct `json:"products"`
}

type rawProduct struct {
	ProductName string    `json:"productName"`
	Brand       string    `json:"brand"`
	Description string    `json:"description"`
	Link        string    `json:"link"`
	Categories  []string  `json:"categories"`
	Items       []rawItem `json:"items"`
}

type rawItem struct {
	ItemID       string         `json:"itemId"`
	NameComplete string         `json:"nameComplete"`
	Variations   []rawVariation `json:"variations"`
	Images       []rawImage     `json:"images"`
	Sellers      []rawSeller    `json:"sellers"`
}

type rawVariation struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

type rawImage struct {
	ImageURL string `json:"imageUrl"`
}

type rawSeller struct {
	SellerID      string   `json:"sellerId"`
	SellerDefault bool     `json:"sellerDefault"`
	Offer         rawOffer `json:"commertialOffer"`
}

type rawOffer struct {
	Price             float64 `json:"Price"`
	ListPrice         float64 `json:"ListPrice"`
	SpotPrice         float64 `json:"spotPrice"`
	AvailableQuantity int     `json:"AvailableQuantity"`
}

type regionResponse struct {
	ID      string `json:"id"`
	Sellers []struct {
		ID string `json:"id"`
	} `json:"sellers"`
}

const maxDescriptionLen = 200

// flattenProducts turns the nested catalog payload into SKU-level product
// entries, one per SKU variation, keeping the backend's relevance order.
func (c *client) flattenProducts(raw []rawProduct, maxProducts int) []models.Product {
	var out []models.Product

	for _, rp := range raw {
		if len(out) >= maxProducts {
			break
		}
		if len(rp.Items) == 0 {
			continue
		}

		description := rp.Description
		if len(description) > maxDescriptionLen {
			description = description[:maxDescriptionLen] + "..."
		}

		link := c.storeURL + rp.Link
		if c.utmSource != "" {
			link += "?utm_source=" + c.utmSource
		}

		variations := 0
		for _, item := range rp.Items {
			if item.ItemID == "" {
				continue
			}
			if variations >= c.maxVariations || len(out) >= maxProducts {
				break
			}

			seller, sellerID := selectBestSeller(item.Sellers)

			p := models.Product{
				SKUID:       item.ItemID,
				Name:        item.NameComplete,
				SellerID:    sellerID,
				Brand:       rp.Brand,
				Description: description,
				Categories:  rp.Categories,
				Variations:  formatVariations(item.Variations),
				ImageURL:    firstImageURL(item.Images),
				Link:        link,
			}
			if seller != nil {
				if seller.Offer.Price > 0 {
					p.Price = util.Ptr(seller.Offer.Price)
				}
				if seller.Offer.ListPrice > 0 {
					p.ListPrice = util.Ptr(seller.Offer.ListPrice)
				}
				if seller.Offer.SpotPrice > 0 {
					p.SpotPrice = util.Ptr(seller.Offer.SpotPrice)
				}
			}
			out = append(out, p)
			variations++
		}
	}

	return out
}

// selectBestSeller prefers the default seller, then the first one with a
// sellable offer.
func selectBestSeller(sellers []rawSeller) (*rawSeller, string) {
	for i := range sellers {
		if sellers[i].SellerDefault {
			return &sellers[i], sellers[i].SellerID
		}
	}
	for i := range sellers {
		if sellers[i].Offer.Price > 0 {
			return &sellers[i], sellers[i].SellerID
		}
	}
	if len(sellers) > 0 {
		return &sellers[0], sellers[0].SellerID
	}
	return nil, "1"
}

// formatVariations renders "[Color: Blue, Size: M]" for prompt-friendly
// variation text.
func formatVariations(variations []rawVariation) string {
	var parts []string
	for _, v := range variations {
		if v.Name == "" || len(v.Values) == 0 {
			continue
		}
		parts = append(parts, v.Name+": "+strings.Join(v.Values, "/"))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// firstImageURL strips query and fragment noise from the first image.
func firstImageURL(images []rawImage) string {
	for _, img := range images {
		u := img.ImageURL
		if u == "" {
			continue
		}
		if i := strings.IndexByte(u, '?'); i >= 0 {
			u = u[:i]
		}
		if i := strings.IndexByte(u, '#'); i >= 0 {
			u = u[:i]
		}
		return u
	}
	return ""
}
