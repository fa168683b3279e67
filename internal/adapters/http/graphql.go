package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/mapsearch/internal/core/domain"
	"github.com/samirrijal/mapsearch/internal/core/usecases"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	ctrl := usecases.NewViewportSearchController(deps.Viewport, deps.Search, nil)

	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	// Fields resolve through the json tags of domain.Marker.
	markerType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Marker",
		Fields: graphql.Fields{
			"record_id":    &graphql.Field{Type: graphql.String},
			"position":     &graphql.Field{Type: geoPointType},
			"color":        &graphql.Field{Type: graphql.String},
			"fill_opacity": &graphql.Field{Type: graphql.Float},
			"radius":       &graphql.Field{Type: graphql.Int},
		},
	})

	entryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ListingEntry",
		Fields: graphql.Fields{
			"label": &graphql.Field{Type: graphql.String},
		},
	})

	listingType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Listing",
		Fields: graphql.Fields{
			"entries": &graphql.Field{Type: graphql.NewList(entryType)},
			"error":   &graphql.Field{Type: graphql.String},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"listing": &graphql.Field{
				Type:        listingType,
				Description: "Names of the records inside a map viewport",
				Args: graphql.FieldConfigArgument{
					"north": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"west":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"south": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"east":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					bbox := domain.BoundingBox{
						North: p.Args["north"].(float64),
						West:  p.Args["west"].(float64),
						South: p.Args["south"].(float64),
						East:  p.Args["east"].(float64),
					}
					if err := validateBBox(bbox); err != nil {
						return nil, err
					}
					view, err := ctrl.Refresh(p.Context, bbox)
					if err != nil {
						return nil, err
					}
					entries := make([]map[string]interface{}, len(view.Entries))
					for i, e := range view.Entries {
						entries[i] = map[string]interface{}{"label": e.Label}
					}
					return map[string]interface{}{"entries": entries, "error": view.Error}, nil
				},
			},
			"markers": &graphql.Field{
				Type:        graphql.NewList(markerType),
				Description: "Markers seeded from the record store",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Markers.Markers(p.Context)
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
