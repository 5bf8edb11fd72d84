package repository

import (
	"context"
	"regexp"
	"time"

	"github.com/example/storefront/pkg/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// searchFields are matched by keyword search.
var searchFields = []string{"name", "category", "description", "brand", "type"}

func (m *MongoRepository) products() *mongo.Collection {
	return m.database.Collection(productsCollection)
}

func (m *MongoRepository) CreateProduct(ctx context.Context, product *models.Product) error {
	now := time.Now()
	product.CreatedAt, product.UpdatedAt = now, now
	if product.ID.IsZero() {
		product.ID = primitive.NewObjectID()
	}
	_, err := m.products().InsertOne(ctx, product)
	return err
}

func (m *MongoRepository) GetProduct(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	var product models.Product
	if err := m.products().FindOne(ctx, bson.M{"_id": id}).Decode(&product); err != nil {
		return nil, notFound(err)
	}
	return &product, nil
}

func (m *MongoRepository) GetProductsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	cursor, err := m.products().Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var products []models.Product
	if err := cursor.All(ctx, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// ListProducts returns the page of products matching filter and the total
// number of matches. PerPage <= 0 returns every match.
func (m *MongoRepository) ListProducts(ctx context.Context, filter models.ProductFilter) ([]models.Product, int64, error) {
	query := productQuery(filter)

	total, err := m.products().CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	sortField := filter.SortField
	if sortField == "" {
		sortField = "createdAt"
	}
	direction := 1
	if filter.SortDesc {
		direction = -1
	}
	opts := options.Find().SetSort(bson.D{{Key: sortField, Value: direction}, {Key: "_id", Value: direction}})
	if filter.PerPage > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		opts.SetSkip(int64((page - 1) * filter.PerPage)).SetLimit(int64(filter.PerPage))
	}

	cursor, err := m.products().Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	products := []models.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func productQuery(filter models.ProductFilter) bson.M {
	query := bson.M{}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.SubCategory != "" {
		query["subCategory"] = filter.SubCategory
	}
	if filter.BestSeller != nil {
		query["bestSeller"] = *filter.BestSeller
	}

	if len(filter.Keywords) > 0 {
		and := make(bson.A, 0, len(filter.Keywords))
		for _, keyword := range filter.Keywords {
			pattern := primitive.Regex{Pattern: regexp.QuoteMeta(keyword), Options: "i"}
			or := make(bson.A, 0, len(searchFields))
			for _, field := range searchFields {
				or = append(or, bson.M{field: pattern})
			}
			and = append(and, bson.M{"$or": or})
		}
		query["$and"] = and
	}
	return query
}

func (m *MongoRepository) UpdateProduct(ctx context.Context, product *models.Product) error {
	product.UpdatedAt = time.Now()
	res, err := m.products().ReplaceOne(ctx, bson.M{"_id": product.ID}, product)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoRepository) DeleteProduct(ctx context.Context, id primitive.ObjectID) error {
	res, err := m.products().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
