package shopify

import (
	"context"
	"strconv"
	"strings"
)

type Image struct {
	URL     string `json:"url"`
	AltText string `json:"alt_text,omitempty"`
}

type Variant struct {
	ID               int64  `json:"id"`
	Title            string `json:"title"`
	AvailableForSale bool   `json:"available_for_sale"`
	Image            *Image `json:"image,omitempty"`
}

type ProductOption struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

type Product struct {
	ID            int64           `json:"id"`
	Title         string          `json:"title"`
	FeaturedImage *Image          `json:"featured_image,omitempty"`
	Images        []Image         `json:"images,omitempty"`
	Options       []ProductOption `json:"options,omitempty"`
	Variants      []Variant       `json:"variants"`
}

const productQuery = `
query ProductDetails($id: ID!) {
  product(id: $id) {
    id
    title
    featuredImage { url altText }
    images(first: 10) { nodes { url altText } }
    options { name optionValues { name } }
    variants(first: 100) {
      nodes {
        id
        title
        availableForSale
        image { url altText }
      }
    }
  }
}`

// ProductDetails fetches the catalog view of a product for the redemption page.
func (c *Client) ProductDetails(ctx context.Context, productID int64) (*Product, error) {
	var data struct {
		Product *struct {
			ID            string `json:"id"`
			Title         string `json:"title"`
			FeaturedImage *Image `json:"featuredImage"`
			Images        struct {
				Nodes []struct {
					URL     string `json:"url"`
					AltText string `json:"altText"`
				} `json:"nodes"`
			} `json:"images"`
			Options []struct {
				Name         string `json:"name"`
				OptionValues []struct {
					Name string `json:"name"`
				} `json:"optionValues"`
			} `json:"options"`
			Variants struct {
				Nodes []struct {
					ID               string `json:"id"`
					Title            string `json:"title"`
					AvailableForSale bool   `json:"availableForSale"`
					Image            *Image `json:"image"`
				} `json:"nodes"`
			} `json:"variants"`
		} `json:"product"`
	}

	vars := map[string]interface{}{"id": gid("Product", productID)}
	if err := c.storefrontQuery(ctx, productQuery, vars, &data); err != nil {
		return nil, err
	}
	if data.Product == nil {
		return nil, nil
	}

	p := &Product{
		ID:            parseGID(data.Product.ID),
		Title:         data.Product.Title,
		FeaturedImage: data.Product.FeaturedImage,
	}
	for _, img := range data.Product.Images.Nodes {
		p.Images = append(p.Images, Image{URL: img.URL, AltText: img.AltText})
	}
	for _, opt := range data.Product.Options {
		values := make([]string, 0, len(opt.OptionValues))
		for _, v := range opt.OptionValues {
			values = append(values, v.Name)
		}
		p.Options = append(p.Options, ProductOption{Name: opt.Name, Values: values})
	}
	for _, v := range data.Product.Variants.Nodes {
		p.Variants = append(p.Variants, Variant{
			ID:               parseGID(v.ID),
			Title:            v.Title,
			AvailableForSale: v.AvailableForSale,
			Image:            v.Image,
		})
	}
	return p, nil
}

// parseGID extracts the numeric tail of a gid://shopify/Type/123 identifier.
func parseGID(id string) int64 {
	idx := strings.LastIndexByte(id, '/')
	if idx < 0 {
		return 0
	}
	n, err := strconv.ParseInt(id[idx+1:], 10, 64)
	if err != nil {
		return 0
	}
	return n
}
