package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/MikeMC777/costeo/internal/account"
	"github.com/MikeMC777/costeo/internal/auth"
	"github.com/MikeMC777/costeo/internal/backup"
	"github.com/MikeMC777/costeo/internal/httpx"
	"github.com/MikeMC777/costeo/internal/plan"
	"github.com/MikeMC777/costeo/internal/pricing"
	"github.com/MikeMC777/costeo/internal/product"
	"github.com/MikeMC777/costeo/internal/recipe"
	"github.com/MikeMC777/costeo/internal/report"
	"github.com/MikeMC777/costeo/internal/sheet"
)

const (
	limitsKey = "limits"
	xlsxType  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// planSource resolves the limits of the caller's tenant.
type planSource interface {
	Limits(ctx context.Context, userID string) (plan.Limits, error)
}

// userSource confirms that the token's user still exists.
type userSource interface {
	ValidateUser(ctx context.Context, id string) (bool, error)
}

type deps struct {
	users    userSource
	products product.Repository
	recipes  recipe.Repository
	plans    planSource
	backups  *backup.Exporter
	now      func() time.Time
}

func routes(r *gin.Engine, signer *auth.Signer, d deps) {
	if d.now == nil {
		d.now = time.Now
	}
	canImport := withPlan(d.plans, func(l plan.Limits) bool { return l.SpreadsheetImport })
	canPDF := withPlan(d.plans, func(l plan.Limits) bool { return l.PDFExport })
	canBackup := withPlan(d.plans, func(l plan.Limits) bool { return l.Backup })
	counted := withPlan(d.plans, nil)

	g := r.Group("/", httpx.Auth(signer), httpx.KnownUser(d.users.ValidateUser))
	g.POST("/pricing/markup", markupHandler())
	g.POST("/pricing/margin", marginHandler())
	g.GET("/dashboard", dashboardHandler(d))

	g.GET("/products", listProductsHandler(d.products))
	g.GET("/products/low-stock", lowStockHandler(d.products))
	g.GET("/products/export", exportProductsHandler(d.products, d.now))
	g.POST("/products/import", canImport, importProductsHandler(d.products))
	g.GET("/products/:id", getProductHandler(d.products))
	g.POST("/products", counted, createProductHandler(d.products))
	g.PUT("/products/:id", updateProductHandler(d.products))
	g.DELETE("/products/:id", deleteProductHandler(d.products))
	g.POST("/products/:id/movements", createMovementHandler(d.products))
	g.GET("/products/:id/movements", listMovementsHandler(d.products))

	g.GET("/recipes", listRecipesHandler(d.recipes))
	g.GET("/recipes/:id", getRecipeHandler(d.recipes))
	g.POST("/recipes", counted, createRecipeHandler(d))
	g.PUT("/recipes/:id", updateRecipeHandler(d))
	g.DELETE("/recipes/:id", deleteRecipeHandler(d.recipes))
	g.GET("/recipes/:id/cost", recipeCostHandler(d))
	g.POST("/recipes/:id/produce", produceHandler(d))
	g.GET("/recipes/:id/pdf", canPDF, recipePDFHandler(d))
	g.GET("/reports/stock.pdf", canPDF, stockPDFHandler(d))

	g.POST("/backup", canBackup, backupHandler(d))
}

// withPlan loads the caller's plan limits for the handler. When need is set,
// tenants whose plan lacks the feature get 403.
func withPlan(plans planSource, need func(plan.Limits) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		lim, err := plans.Limits(c.Request.Context(), httpx.UserID(c))
		if errors.Is(err, account.ErrUnknownUser) {
			httpx.Error(c, http.StatusUnauthorized, err.Error())
			return
		}
		if err != nil {
			_ = c.Error(err)
			httpx.Error(c, http.StatusBadGateway, "account service unavailable")
			return
		}
		if need != nil && !need(lim) {
			httpx.Error(c, http.StatusForbidden, plan.ErrNotIncluded.Error())
			return
		}
		c.Set(limitsKey, lim)
		c.Next()
	}
}

func limits(c *gin.Context) plan.Limits {
	v, _ := c.Get(limitsKey)
	lim, _ := v.(plan.Limits)
	return lim
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, product.ErrInvalid), errors.Is(err, product.ErrInvalidMovement),
		errors.Is(err, recipe.ErrInvalid), errors.Is(err, sheet.ErrBadUpload),
		errors.Is(err, sheet.ErrMissingHeader), isPricingError(err):
		httpx.Error(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, product.ErrNotFound), errors.Is(err, recipe.ErrNotFound):
		httpx.Error(c, http.StatusNotFound, err.Error())
	case errors.Is(err, product.ErrDuplicateName), errors.Is(err, product.ErrInUse),
		errors.Is(err, product.ErrInsufficientStock):
		httpx.Error(c, http.StatusConflict, err.Error())
	case errors.Is(err, sheet.ErrTooLarge):
		httpx.Error(c, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, plan.ErrLimitReached), errors.Is(err, plan.ErrNotIncluded):
		httpx.Error(c, http.StatusForbidden, err.Error())
	default:
		_ = c.Error(err)
		httpx.Error(c, http.StatusInternalServerError, "internal error")
	}
}

func isPricingError(err error) bool {
	for _, e := range []error{pricing.ErrNegativeCost, pricing.ErrPercentRange, pricing.ErrPercentTotal, pricing.ErrPriceNotPositive} {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}

func attachment(c *gin.Context, name string) {
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
}

//
// ===== pricing =====
//

type markupRequest struct {
	Cost      decimal.Decimal `json:"cost"       example:"12.40"`
	FeesPct   decimal.Decimal `json:"fees_pct"   example:"5"`
	TaxesPct  decimal.Decimal `json:"taxes_pct"  example:"8"`
	ProfitPct decimal.Decimal `json:"profit_pct" example:"30"`
}

type marginRequest struct {
	Cost     decimal.Decimal `json:"cost"      example:"12.40"`
	Price    decimal.Decimal `json:"price"     example:"25.00"`
	FeesPct  decimal.Decimal `json:"fees_pct"  example:"5"`
	TaxesPct decimal.Decimal `json:"taxes_pct" example:"8"`
}

// @Summary  Sale price from cost and price percentages
// @Tags     pricing
// @Accept   json
// @Produce  json
// @Security Bearer
// @Param    body body markupRequest true "cost and percentages"
// @Success  200 {object} pricing.Result
// @Failure  400 {object} product.HTTPError
// @Router   /pricing/markup [post]
func markupHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var in markupRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			httpx.Error(c, http.StatusBadRequest, "invalid body")
			return
		}
		res, err := pricing.Markup(in.Cost, pricing.Percentages{Fees: in.FeesPct, Taxes: in.TaxesPct, Profit: in.ProfitPct})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

// @Summary  Effective profit of a given price
// @Tags     pricing
// @Accept   json
// @Produce  json
// @Security Bearer
// @Param    body body marginRequest true "cost, price and deductions"
// @Success  200 {object} pricing.MarginResult
// @Failure  400 {object} product.HTTPError
// @Router   /pricing/margin [post]
func marginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var in marginRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			httpx.Error(c, http.StatusBadRequest, "invalid body")
			return
		}
		res, err := pricing.Margin(in.Cost, in.Price, in.FeesPct, in.TaxesPct)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

//
// ===== products =====
//

type dashboard struct {
	Products       int             `json:"products"`
	LowStock       int             `json:"low_stock"`
	InventoryValue decimal.Decimal `json:"inventory_value"`
	Recipes        int             `json:"recipes"`
}

// @Summary  Inventory totals of the tenant
// @Tags     products
// @Produce  json
// @Security Bearer
// @Success  200 {object} dashboard
// @Router   /dashboard [get]
func dashboardHandler(d deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, tenant := c.Request.Context(), httpx.TenantID(c)
		ps, err := d.products.ListAll(ctx, tenant)
		if err != nil {
			writeError(c, err)
			return
		}
		n, err := d.recipes.Count(ctx, tenant)
		if err != nil {
			writeError(c, err)
			return
		}
		out := dashboard{Products: len(ps), InventoryValue: product.InventoryValue(ps), Recipes: n}
		for _, p := range ps {
			if p.LowStock() {
				out.LowStock++
			}
		}
		c.JSON(http.StatusOK, out)
	}
}

// @Summary  List products
// @Tags     products
// @Produce  json
// @Security Bearer
// @Param    q      query string false "name or sku"
// @Param    limit  query int    false "page size (max 100)"
// @Param    offset query int    false "offset"
// @Success  200 {object} product.ListResponse
// @Router   /products [get]
func listProductsHandler(repo product.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, offset := httpx.Page(c)
		q := strings.TrimSpace(c.Query("q"))
		items, err := repo.List(c.Request.Context(), product.Query{TenantID: httpx.TenantID(c), Q: q, Limit: limit, Offset: offset})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, product.ListResponse{Q: q, Limit: limit, Offset: offset, Items: items})
	}
}

// @Summary  Products at or below their minimum stock
// @Tags     products
// @Produce  json
// @Security Bearer
// @Router   /products/low-stock [get]
func lowStockHandler(repo product.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := repo.LowStock(c.Request.Context(), httpx.TenantID(c))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": items})
	}
}

// @Summary  Get product by ID
// @Tags     products
// @Produce  json
// @Security Bearer
// @Param    id path string true "product id"
// @Success  200 {object} product.Product
// @Failure  404 {object} product.HTTPError
// @Router   /products/{id} [get]
func getProductHandler(repo product.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := repo.GetByID(c.Request.Context(), httpx.TenantID(c), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

// @Summary  Create product
// @Tags     products
// @Accept   json
// @Produce  json
// @Security Bearer
// @Param    body body product.CreateProductRequest true "product"
// @Success  201 {object} product.Product
// @Failure  400,403,409 {object} product.HTTPError
// @Router   /products [post]
func createProductHandler(repo product.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in product.CreateProductRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			httpx.Error(c, http.StatusBadRequest, "invalid body")
			return
		}
		ctx, tenant := c.Request.Context(), httpx.TenantID(c)
		p := product.Product{
			TenantID:     tenant,
			Name:         in.Name,
			SKU:          in.SKU,
			Unit:         in.Unit,
			PackageQty:   in.PackageQty,
			PackagePrice: in.PackagePrice,
			Stock:        in.Stock,
			MinStock:     in.MinStock,
		}
		p.Normalize()
		p.Reprice()
		if err := p.Validate(); err != nil {
			writeError(c, err)
			return
		}
		if err := repo.Create(ctx, &p, limits(c).MaxProducts); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, p)
	}
}

// @Summary  Update product (partial)
// @Tags     products
// @Accept   json
// @Produce  json
// @Security Bearer
// @Param    id   path string                       true "product id"
// @Param    body body product.UpdateProductRequest true "fields to change"
// @Success  200 {object} product.Product
// @Failure  400,404,409 {object} product.HTTPError
// @Router   /products/{id} [put]
func updateProductHandler(repo product.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in product.UpdateProductRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			httpx.Error(c, http.StatusBadRequest, "invalid body")
			return
		}
		ctx := c.Request.Context()
		p, err := repo.GetByID(ctx, httpx.TenantID(c), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		if in.Apply(p) {
			p.Reprice()
		}
		p.Normalize()
		if err := p.Validate(); err != nil {
			writeError(c, err)
			return
		}
		if err := repo.Update(ctx, p); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

// @Summary  Delete product
// @Tags     products
// @Security Bearer
// @Param    id path string true "product id"
// @Success  204
// @Failure  404,409 {object} product.HTTPError
// @Router   /products/{id} [delete]
func deleteProductHandler(repo product.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := repo.Delete(c.Request.Context(), httpx.TenantID(c), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		if !ok {
			writeError(c, product.ErrNotFound)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// @Summary  Record a stock movement
// @Tags     products
// @Accept   json
// @Produce  json
// @Security Bearer
// @Param    id   path string                  true "product id"
// @Param    body body product.MovementRequest true "movement"
// @Success  201 {object} product.Movement
// @Failure  400,404,409 {object} product.HTTPError
// @Router   /products/{id}/movements [post]
func createMovementHandler(repo product.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in product.MovementRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			httpx.Error(c, http.StatusBadRequest, "invalid body")
			return
		}
		ms, err := repo.ApplyMovements(c.Request.Context(), httpx.TenantID(c), httpx.UserID(c),
			[]product.BatchMovement{{ProductID: c.Param("id"), MovementRequest: in}})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, ms[0])
	}
}

// @Summary  Stock ledger of a product, newest first
// @Tags     products
// @Produce  json
// @Security Bearer
// @Param    id     path  string true  "product id"
// @Param    limit  query int    false "page size (max 100)"
// @Param    offset query int    false "offset"
// @Router   /products/{id}/movements [get]
func listMovementsHandler(repo product.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, tenant := c.Request.Context(), httpx.TenantID(c)
		if _, err := repo.GetByID(ctx, tenant, c.Param("id")); err != nil {
			writeError(c, err)
			return
		}
		limit, offset := httpx.Page(c)
		items, err := repo.ListMovements(ctx, tenant, c.Param("id"), limit, offset)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": items, "limit": limit, "offset": offset})
	}
}

// @Summary  Download products as xlsx
// @Tags     products
// @Produce  application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security Bearer
// @Router   /products/export [get]
func exportProductsHandler(repo product.Repository, now func() time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		ps, err := repo.ListAll(c.Request.Context(), httpx.TenantID(c))
		if err != nil {
			writeError(c, err)
			return
		}
		buf, err := sheet.ExportProducts(ps)
		if err != nil {
			writeError(c, err)
			return
		}
		attachment(c, "products-"+now().UTC().Format("20060102")+".xlsx")
		c.Data(http.StatusOK, xlsxType, buf.Bytes())
	}
}

type importFailure struct {
	Error string `json:"error"`
	sheet.Result
}

// @Summary  Import products from xlsx
// @Tags     products
// @Accept   json
// @Produce  json
// @Security Bearer
// @Param    body body sheet.UploadRequest true "base64 xlsx"
// @Success  200 {object} sheet.Result
// @Failure  400,403,413 {object} product.HTTPError
// @Failure  500 {object} importFailure
// @Router   /products/import [post]
func importProductsHandler(repo product.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in sheet.UploadRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			httpx.Error(c, http.StatusBadRequest, "invalid body")
			return
		}
		raw, err := sheet.DecodeUpload(in.Filename, in.FileBase64)
		if err != nil {
			writeError(c, err)
			return
		}
		rows, rowErrs, err := sheet.ReadProducts(bytes.NewReader(raw))
		if err != nil {
			writeError(c, err)
			return
		}
		res, err := sheet.Import(c.Request.Context(), repo, httpx.TenantID(c), httpx.UserID(c), rows, limits(c).MaxProducts)
		res.Errors = append(append([]sheet.RowError{}, rowErrs...), res.Errors...)
		if err != nil {
			// Rows before the failure stay written; report them with the error.
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, importFailure{
				Error:  "import stopped: internal error",
				Result: res,
			})
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

//
// ===== recipes =====
//

// tenantProducts loads the given products. An id that is not a product of the
// tenant makes the recipe invalid.
func tenantProducts(ctx context.Context, repo product.Repository, tenantID string, ids []string) (map[string]product.Product, error) {
	out := make(map[string]product.Product, len(ids))
	for _, id := range ids {
		p, err := repo.GetByID(ctx, tenantID, id)
		if errors.Is(err, product.ErrNotFound) {
			return nil, fmt.Errorf("%w: product %s not found", recipe.ErrInvalid, id)
		}
		if err != nil {
			return nil, err
		}
		out[id] = *p
	}
	return out, nil
}

func costing(ctx context.Context, d deps, tenantID, id string) (recipe.Costing, error) {
	r, err := d.recipes.GetByID(ctx, tenantID, id)
	if err != nil {
		return recipe.Costing{}, err
	}
	ps, err := tenantProducts(ctx, d.products, tenantID, r.ProductIDs())
	if err != nil {
		return recipe.Costing{}, err
	}
	return recipe.Cost(*r, ps)
}

// @Summary  List recipes
// @Tags     recipes
// @Produce  json
// @Security Bearer
// @Param    q      query string false "name"
// @Param    limit  query int    false "page size (max 100)"
// @Param    offset query int    false "offset"
// @Router   /recipes [get]
func listRecipesHandler(repo recipe.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, offset := httpx.Page(c)
		q := strings.TrimSpace(c.Query("q"))
		items, err := repo.List(c.Request.Context(), httpx.TenantID(c), q, limit, offset)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": items, "q": q, "limit": limit, "offset": offset})
	}
}

// @Summary  Get recipe by ID
// @Tags     recipes
// @Produce  json
// @Security Bearer
// @Param    id path string true "recipe id"
// @Success  200 {object} recipe.Recipe
// @Router   /recipes/{id} [get]
func getRecipeHandler(repo recipe.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		r, err := repo.GetByID(c.Request.Context(), httpx.TenantID(c), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, r)
	}
}

// @Summary  Create recipe
// @Tags     recipes
// @Accept   json
// @Produce  json
// @Security Bearer
// @Param    body body recipe.RecipeRequest true "recipe"
// @Success  201 {object} recipe.Recipe
// @Failure  400,403 {object} product.HTTPError
// @Router   /recipes [post]
func createRecipeHandler(d deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in recipe.RecipeRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			httpx.Error(c, http.StatusBadRequest, "invalid body")
			return
		}
		ctx, tenant := c.Request.Context(), httpx.TenantID(c)
		r := in.Recipe(tenant)
		if err := r.Validate(); err != nil {
			writeError(c, err)
			return
		}
		if _, err := tenantProducts(ctx, d.products, tenant, r.ProductIDs()); err != nil {
			writeError(c, err)
			return
		}
		if err := d.recipes.Create(ctx, &r, limits(c).MaxRecipes); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, r)
	}
}

// @Summary  Replace recipe
// @Tags     recipes
// @Accept   json
// @Produce  json
// @Security Bearer
// @Param    id   path string               true "recipe id"
// @Param    body body recipe.RecipeRequest true "recipe"
// @Success  200 {object} recipe.Recipe
// @Router   /recipes/{id} [put]
func updateRecipeHandler(d deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in recipe.RecipeRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			httpx.Error(c, http.StatusBadRequest, "invalid body")
			return
		}
		ctx, tenant := c.Request.Context(), httpx.TenantID(c)
		cur, err := d.recipes.GetByID(ctx, tenant, c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		r := in.Recipe(tenant)
		r.ID, r.CreatedAt = cur.ID, cur.CreatedAt
		if err := r.Validate(); err != nil {
			writeError(c, err)
			return
		}
		if _, err := tenantProducts(ctx, d.products, tenant, r.ProductIDs()); err != nil {
			writeError(c, err)
			return
		}
		if err := d.recipes.Update(ctx, &r); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, r)
	}
}

// @Summary  Delete recipe
// @Tags     recipes
// @Security Bearer
// @Param    id path string true "recipe id"
// @Success  204
// @Router   /recipes/{id} [delete]
func deleteRecipeHandler(repo recipe.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := repo.Delete(c.Request.Context(), httpx.TenantID(c), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		if !ok {
			writeError(c, recipe.ErrNotFound)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// @Summary  Cost breakdown and suggested price
// @Tags     recipes
// @Produce  json
// @Security Bearer
// @Param    id path string true "recipe id"
// @Success  200 {object} recipe.Costing
// @Router   /recipes/{id}/cost [get]
func recipeCostHandler(d deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := costing(c.Request.Context(), d, httpx.TenantID(c), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

// @Summary  Consume the ingredients of a production run
// @Tags     recipes
// @Accept   json
// @Produce  json
// @Security Bearer
// @Param    id   path string                true "recipe id"
// @Param    body body recipe.ProduceRequest true "batches"
// @Failure  400,404,409 {object} product.HTTPError
// @Router   /recipes/{id}/produce [post]
func produceHandler(d deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in recipe.ProduceRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			httpx.Error(c, http.StatusBadRequest, "invalid body")
			return
		}
		ctx, tenant := c.Request.Context(), httpx.TenantID(c)
		r, err := d.recipes.GetByID(ctx, tenant, c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		batch, err := recipe.Production(*r, in.Batches)
		if err != nil {
			writeError(c, err)
			return
		}
		ms, err := d.products.ApplyMovements(ctx, tenant, httpx.UserID(c), batch)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"movements": ms})
	}
}

// @Summary  Recipe cost sheet as PDF
// @Tags     reports
// @Produce  application/pdf
// @Security Bearer
// @Param    id path string true "recipe id"
// @Router   /recipes/{id}/pdf [get]
func recipePDFHandler(d deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := costing(c.Request.Context(), d, httpx.TenantID(c), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		pdf, err := report.RecipeSheet(out, d.now())
		if err != nil {
			writeError(c, err)
			return
		}
		attachment(c, "recipe-"+out.RecipeID+".pdf")
		c.Data(http.StatusOK, "application/pdf", pdf)
	}
}

// @Summary  Stock report as PDF
// @Tags     reports
// @Produce  application/pdf
// @Security Bearer
// @Router   /reports/stock.pdf [get]
func stockPDFHandler(d deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		ps, err := d.products.ListAll(c.Request.Context(), httpx.TenantID(c))
		if err != nil {
			writeError(c, err)
			return
		}
		pdf, err := report.StockReport(ps, d.now())
		if err != nil {
			writeError(c, err)
			return
		}
		attachment(c, "stock-"+d.now().UTC().Format("20060102")+".pdf")
		c.Data(http.StatusOK, "application/pdf", pdf)
	}
}

// @Summary  Export every product, movement and recipe of the tenant
// @Tags     backup
// @Produce  json
// @Security Bearer
// @Success  201 {object} backup.Receipt
// @Success  200 {object} backup.Document
// @Router   /backup [post]
func backupHandler(d deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenant := httpx.TenantID(c)
		receipt, doc, err := d.backups.Run(c.Request.Context(), tenant)
		if err != nil {
			writeError(c, err)
			return
		}
		if receipt != nil {
			c.JSON(http.StatusCreated, receipt)
			return
		}
		attachment(c, "backup-"+doc.ExportedAt.Format("20060102T150405Z")+".json")
		c.JSON(http.StatusOK, doc)
	}
}
