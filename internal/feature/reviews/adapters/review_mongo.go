package adapters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	authadapters "review_backend/internal/feature/auth/adapters"
	"review_backend/internal/feature/reviews/domain/entity"
	"review_backend/internal/feature/reviews/usecase"
	sentiment "review_backend/internal/feature/sentiment/domain/entity"
	"review_backend/internal/platform/mongodb"
)

// reviewDocument は reviews コレクションのドキュメント形式です。
type reviewDocument struct {
	ID        bson.ObjectID `bson:"_id,omitempty"`
	User      bson.ObjectID `bson:"user"`
	Service   string        `bson:"service"`
	Comment   string        `bson:"comment"`
	Label     string        `bson:"label"`
	Score     float64       `bson:"score"`
	CreatedAt time.Time     `bson:"createdAt"`
	UpdatedAt time.Time     `bson:"updatedAt"`
}

// reviewWithAuthor は $lookup 後の集約結果です。
type reviewWithAuthor struct {
	reviewDocument `bson:",inline"`
	Author         *authadapters.UserDocument `bson:"author"`
}

func (d reviewWithAuthor) toEntity() entity.Review {
	r := entity.Review{
		ID:        d.ID.Hex(),
		AuthorID:  d.User.Hex(),
		Service:   d.Service,
		Comment:   d.Comment,
		Label:     sentiment.Label(d.Label),
		Score:     d.Score,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	if d.Author != nil {
		r.Author = *d.Author.ToEntity()
	} else {
		// 参照先が削除済み
		r.Author.ID = d.User.Hex()
	}
	return r
}

// reviewMongo はReviewRepositoryインターフェースのMongoDB実装です。
type reviewMongo struct {
	coll *mongo.Collection
}

// reviewMongoがReviewRepositoryを実装していることをコンパイル時に検証します。
var _ usecase.ReviewRepository = (*reviewMongo)(nil)

// NewReviewMongo は reviews コレクションを使うreviewMongoの新しいインスタンスを生成します。
func NewReviewMongo(db *mongo.Database) *reviewMongo {
	return &reviewMongo{coll: db.Collection(mongodb.ReviewsCollection)}
}

// Create はレビューを1件挿入し、採番されたIDと日時を設定します。
func (r *reviewMongo) Create(ctx context.Context, review *entity.Review) error {
	if review == nil {
		return errors.New("review is nil")
	}
	author, err := authadapters.ParseObjectID(review.AuthorID)
	if err != nil {
		return err
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	doc := reviewDocument{
		ID:        bson.NewObjectID(),
		User:      author,
		Service:   review.Service,
		Comment:   review.Comment,
		Label:     string(review.Label),
		Score:     review.Score,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return err
	}

	review.ID = doc.ID.Hex()
	review.CreatedAt = now
	review.UpdatedAt = now
	return nil
}

// ListAll は全レビューを作成日時の降順で返します。
func (r *reviewMongo) ListAll(ctx context.Context) ([]entity.Review, error) {
	return r.aggregate(ctx, nil)
}

// ListByAuthor は指定ユーザーのレビューを作成日時の降順で返します。
func (r *reviewMongo) ListByAuthor(ctx context.Context, authorID string) ([]entity.Review, error) {
	oid, err := authadapters.ParseObjectID(authorID)
	if err != nil {
		return nil, err
	}
	return r.aggregate(ctx, bson.D{{Key: "user", Value: oid}})
}

// listPipeline は並び替えと投稿者の $lookup を行う集約パイプラインを組み立てます。
func listPipeline(match bson.D) mongo.Pipeline {
	var p mongo.Pipeline
	if match != nil {
		p = append(p, bson.D{{Key: "$match", Value: match}})
	}
	return append(p,
		bson.D{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}}},
		bson.D{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: mongodb.UsersCollection},
			{Key: "localField", Value: "user"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "author"},
		}}},
		bson.D{{Key: "$unwind", Value: bson.D{
			{Key: "path", Value: "$author"},
			{Key: "preserveNullAndEmptyArrays", Value: true},
		}}},
	)
}

func (r *reviewMongo) aggregate(ctx context.Context, match bson.D) ([]entity.Review, error) {
	cur, err := r.coll.Aggregate(ctx, listPipeline(match))
	if err != nil {
		return nil, fmt.Errorf("review aggregation failed: %w", err)
	}
	defer func() { _ = cur.Close(ctx) }()

	out := []entity.Review{}
	for cur.Next(ctx) {
		var doc reviewWithAuthor
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode review: %w", err)
		}
		out = append(out, doc.toEntity())
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
