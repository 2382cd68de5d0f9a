package handlers

import (
	"natours/internal/query"
	"natours/internal/services"
	"natours/internal/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
)

// Resource describes how a model is exposed over HTTP. T is the model, C the
// create request and U the update request.
type Resource[T, C, U any] struct {
	Service  services.CRUDService[T, C, U]
	Schema   query.Schema
	Singular string
	Plural   string

	// Populate is passed to Get on read-one.
	Populate []string

	// ParentParam names a route parameter that, when present, scopes GetAll
	// to documents whose ParentField equals it.
	ParentParam string
	ParentField string

	// BeforeCreate runs after binding and before the service call.
	BeforeCreate func(c *gin.Context, req *C) error
}

// Factory builds the five standard handlers for a resource.
type Factory[T, C, U any] struct {
	res Resource[T, C, U]
}

func NewFactory[T, C, U any](res Resource[T, C, U]) *Factory[T, C, U] {
	return &Factory[T, C, U]{res: res}
}

func (f *Factory[T, C, U]) GetAll() gin.HandlerFunc {
	return func(c *gin.Context) {
		scope := bson.M{}
		if f.res.ParentParam != "" {
			if parent := c.Param(f.res.ParentParam); parent != "" {
				oid, err := services.ParseIDAt(f.res.ParentField, parent)
				if err != nil {
					_ = c.Error(err)
					return
				}
				scope[f.res.ParentField] = oid
			}
		}

		q := query.New(c.Request.URL.Query(), f.res.Schema).
			Filter().
			Sort().
			LimitFields().
			Paginate()

		docs, err := f.res.Service.List(c.Request.Context(), scope, q)
		if err != nil {
			_ = c.Error(err)
			return
		}

		utils.ListResponse(c, len(docs), gin.H{f.res.Plural: docs})
	}
}

func (f *Factory[T, C, U]) GetOne() gin.HandlerFunc {
	return func(c *gin.Context) {
		doc, err := f.res.Service.Get(c.Request.Context(), c.Param("id"), f.res.Populate...)
		if err != nil {
			_ = c.Error(err)
			return
		}
		utils.SuccessResponse(c, gin.H{f.res.Singular: doc})
	}
}

func (f *Factory[T, C, U]) CreateOne() gin.HandlerFunc {
	return func(c *gin.Context) {
		req := new(C)
		if err := c.ShouldBindJSON(req); err != nil {
			_ = c.Error(err)
			return
		}
		if f.res.BeforeCreate != nil {
			if err := f.res.BeforeCreate(c, req); err != nil {
				_ = c.Error(err)
				return
			}
		}

		doc, err := f.res.Service.Create(c.Request.Context(), req)
		if err != nil {
			_ = c.Error(err)
			return
		}
		utils.CreatedResponse(c, gin.H{f.res.Singular: doc})
	}
}

func (f *Factory[T, C, U]) UpdateOne() gin.HandlerFunc {
	return func(c *gin.Context) {
		req := new(U)
		if err := c.ShouldBindJSON(req); err != nil {
			_ = c.Error(err)
			return
		}

		doc, err := f.res.Service.Update(c.Request.Context(), c.Param("id"), req)
		if err != nil {
			_ = c.Error(err)
			return
		}
		utils.SuccessResponse(c, gin.H{f.res.Singular: doc})
	}
}

func (f *Factory[T, C, U]) DeleteOne() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := f.res.Service.Delete(c.Request.Context(), c.Param("id")); err != nil {
			_ = c.Error(err)
			return
		}
		utils.NoContentResponse(c)
	}
}
