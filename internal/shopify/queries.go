package shopify

// ProductSearchQuery searches products with a Shopify search expression
// (e.g. "sku:ABC status:active" or "title:scarf* status:active")
const ProductSearchQuery = `
query searchProducts($first: Int!, $query: String!, $sortKey: ProductSortKeys, $reverse: Boolean) {
  products(first: $first, query: $query, sortKey: $sortKey, reverse: $reverse) {
    edges {
      node {
        id
        title
        handle
        status
        descriptionHtml
        priceRangeV2 {
          minVariantPrice {
            amount
          }
        }
        images(first: 5) {
          edges {
            node {
              url
            }
          }
        }
        variants(first: 50) {
          edges {
            node {
              id
              title
              sku
              price
              inventoryQuantity
              inventoryItem {
                id
              }
            }
          }
        }
      }
    }
  }
}
`

// ShopQuery is a minimal query used to check credentials
const ShopQuery = `
query {
  shop {
    name
    myshopifyDomain
  }
}
`
