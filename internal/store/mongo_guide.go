// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-tour-guide/internal/logger"
	"github.com/MKhiriev/go-tour-guide/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// guideDocument is a user document joined with its guide profile.
type guideDocument struct {
	models.User `bson:",inline"`
	Profile     models.GuideProfile `bson:"profile"`
}

func (d guideDocument) guide() models.Guide {
	return models.Guide{User: d.User, Profile: d.Profile}
}

// guidePage is the result of the faceted guide search.
type guidePage struct {
	Items []guideDocument `bson:"items"`
	Total []struct {
		Count int64 `bson:"count"`
	} `bson:"total"`
}

// mongoGuideRepository is the MongoDB implementation of [GuideRepository].
type mongoGuideRepository struct {
	users    *mongo.Collection
	profiles *mongo.Collection
	logger   *logger.Logger
}

// NewMongoGuideRepository constructs a [GuideRepository] over the "users"
// and "guide_profiles" collections of db.
func NewMongoGuideRepository(db *mongo.Database, logger *logger.Logger) GuideRepository {
	return &mongoGuideRepository{
		users:    db.Collection(usersCollection),
		profiles: db.Collection(profilesCollection),
		logger:   logger,
	}
}

// joinProfile are the stages that attach the guide profile to a user.
func joinProfile() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$lookup", Value: bson.M{
			"from":         profilesCollection,
			"localField":   "_id",
			"foreignField": "_id",
			"as":           "profile",
		}}},
		{{Key: "$unwind", Value: "$profile"}},
	}
}

// GetGuide returns the account and profile of a guide.
func (g *mongoGuideRepository) GetGuide(ctx context.Context, userID string) (models.Guide, error) {
	log := logger.FromContext(ctx)

	pipeline := append(mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"_id": userID}}},
	}, joinProfile()...)

	cursor, err := g.users.Aggregate(ctx, pipeline)
	if err != nil {
		log.Err(err).Str("func", "*mongoGuideRepository.GetGuide").Str("guide_id", userID).Msg("failed to get guide")
		return models.Guide{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	docs, err := findAll[guideDocument](ctx, cursor)
	if err != nil {
		return models.Guide{}, err
	}
	if len(docs) == 0 {
		return models.Guide{}, ErrGuideNotFound
	}

	return docs[0].guide(), nil
}

func guideMatch(filter models.GuideFilter) bson.M {
	match := bson.M{
		"role":   models.RoleGuide,
		"active": true,
	}
	if filter.Query != "" {
		match["$or"] = bson.A{
			bson.M{"name": regexFilter(filter.Query)},
			bson.M{"profile.bio": regexFilter(filter.Query)},
			bson.M{"profile.city": regexFilter(filter.Query)},
		}
	}
	if filter.City != "" {
		match["profile.city"] = equalFoldFilter(filter.City)
	}
	if filter.Language != "" {
		match["profile.languages"] = filter.Language
	}
	rate := bson.M{}
	if filter.MinRate != nil {
		rate["$gte"] = *filter.MinRate
	}
	if filter.MaxRate != nil {
		rate["$lte"] = *filter.MaxRate
	}
	if len(rate) > 0 {
		match["profile.hourly_rate"] = rate
	}
	if filter.Verified != nil {
		match["profile.verified"] = *filter.Verified
	}
	return match
}

func guideSort(s models.GuideSort) bson.D {
	switch s {
	case models.GuideSortRateAsc:
		return bson.D{{Key: "profile.hourly_rate", Value: 1}, {Key: "_id", Value: 1}}
	case models.GuideSortRateDesc:
		return bson.D{{Key: "profile.hourly_rate", Value: -1}, {Key: "_id", Value: 1}}
	case models.GuideSortNewest:
		return bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}
	default:
		return bson.D{{Key: "profile.rating", Value: -1}, {Key: "profile.review_count", Value: -1}, {Key: "_id", Value: 1}}
	}
}

// SearchGuides joins users with profiles and returns one page of matches
// together with the total, computed in a single $facet stage.
func (g *mongoGuideRepository) SearchGuides(ctx context.Context, filter models.GuideFilter) ([]models.Guide, int64, error) {
	log := logger.FromContext(ctx)
	p := filter.Pagination.Normalize()

	pipeline := append(mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"role": models.RoleGuide}}},
	}, joinProfile()...)
	pipeline = append(pipeline,
		bson.D{{Key: "$match", Value: guideMatch(filter)}},
		bson.D{{Key: "$facet", Value: bson.M{
			"items": bson.A{
				bson.M{"$sort": guideSort(filter.Sort)},
				bson.M{"$skip": p.Offset()},
				bson.M{"$limit": p.Limit},
			},
			"total": bson.A{bson.M{"$count": "count"}},
		}}},
	)

	cursor, err := g.users.Aggregate(ctx, pipeline)
	if err != nil {
		log.Err(err).Str("func", "*mongoGuideRepository.SearchGuides").Msg("failed to search guides")
		return nil, 0, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	pages, err := findAll[guidePage](ctx, cursor)
	if err != nil {
		return nil, 0, err
	}

	guides := make([]models.Guide, 0, p.Limit)
	var total int64
	if len(pages) > 0 {
		for _, doc := range pages[0].Items {
			guides = append(guides, doc.guide())
		}
		if len(pages[0].Total) > 0 {
			total = pages[0].Total[0].Count
		}
	}

	return guides, total, nil
}

// UpdateProfile writes the editable fields of the profile.
func (g *mongoGuideRepository) UpdateProfile(ctx context.Context, profile models.GuideProfile) (models.GuideProfile, error) {
	update := bson.M{"$set": bson.M{
		"bio":              profile.Bio,
		"languages":        profile.Languages,
		"city":             profile.City,
		"country":          profile.Country,
		"experience_years": profile.ExperienceYears,
		"hourly_rate":      profile.HourlyRate,
		"updated_at":       profile.UpdatedAt,
	}}

	var updated models.GuideProfile
	err := g.profiles.FindOneAndUpdate(ctx, bson.M{"_id": profile.UserID}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "*mongoGuideRepository.UpdateProfile").Str("guide_id", profile.UserID).Msg("failed to update guide profile")
		return models.GuideProfile{}, notFound(err, ErrGuideNotFound)
	}

	return updated, nil
}

// SetVerified sets the verification badge of a guide.
func (g *mongoGuideRepository) SetVerified(ctx context.Context, userID string, verified bool) error {
	return g.updateOne(ctx, userID, bson.M{"verified": verified})
}

// UpdateRating stores the denormalized rating of a guide.
func (g *mongoGuideRepository) UpdateRating(ctx context.Context, userID string, summary models.RatingSummary) error {
	return g.updateOne(ctx, userID, bson.M{"rating": summary.Average, "review_count": summary.Count})
}

func (g *mongoGuideRepository) updateOne(ctx context.Context, userID string, set bson.M) error {
	res, err := g.profiles.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{"$set": set})
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "*mongoGuideRepository.updateOne").Str("guide_id", userID).Msg("failed to update guide profile")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	if res.MatchedCount == 0 {
		return ErrGuideNotFound
	}
	return nil
}
