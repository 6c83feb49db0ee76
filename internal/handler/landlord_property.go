package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/campus-housing/internal/availability"
	"github.com/iliyamo/campus-housing/internal/service"
)

// DefaultMaxUploadBytes caps one image when no limit is configured.
const DefaultMaxUploadBytes int64 = 5 << 20

// LandlordHandler serves the landlord dashboard: listings, rooms,
// stats and incoming rental requests.
type LandlordHandler struct {
	Props          PropertyService
	Rentals        RentalService
	Cache          Purger
	MaxUploadBytes int64
}

func NewLandlordHandler(props PropertyService, rentals RentalService, cache Purger, maxUpload int64) *LandlordHandler {
	if props == nil || rentals == nil {
		panic("nil service passed to NewLandlordHandler")
	}
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUploadBytes
	}
	return &LandlordHandler{Props: props, Rentals: rentals, Cache: cache, MaxUploadBytes: maxUpload}
}

func (h *LandlordHandler) purge(c echo.Context) {
	if h.Cache != nil {
		h.Cache.Purge(c.Request().Context())
	}
}

// parseRoomTypes decodes the room_types field.  Prices and quantities
// may arrive as JSON numbers or as strings straight from form inputs.
func parseRoomTypes(raw string) ([]availability.RoomTypeSpec, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var rows []map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &rows); err != nil {
		return nil, errors.New("room_types must be a JSON array")
	}
	specs := make([]availability.RoomTypeSpec, 0, len(rows))
	for _, r := range rows {
		specs = append(specs, availability.ParseRoomTypeSpec(formValue(r["type"]), formValue(r["price_per_person"]), formValue(r["quantity"])))
	}
	return specs, nil
}

func formValue(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return fmt.Sprintf("%g", t)
	}
	return fmt.Sprint(v)
}

// openedFiles holds the multipart files a request opened so they can be
// closed once the service is done with them.
type openedFiles []multipart.File

func (o openedFiles) Close() {
	for _, f := range o {
		_ = f.Close()
	}
}

// parsePropertyForm reads the multipart listing form.
func (h *LandlordHandler) parsePropertyForm(c echo.Context) (service.PropertyInput, []service.Upload, openedFiles, error) {
	var in service.PropertyInput
	form, err := c.MultipartForm()
	if err != nil {
		return in, nil, nil, errors.New("expected multipart/form-data")
	}
	get := func(k string) string {
		if v := form.Value[k]; len(v) > 0 {
			return v[0]
		}
		return ""
	}
	in = service.PropertyInput{
		Title:          get("title"),
		Address:        get("address"),
		University:     get("university"),
		Gender:         get("gender"),
		Description:    get("description"),
		Amenities:      form.Value["amenities"],
		Rules:          get("rules"),
		ContactPhone:   get("contact_phone"),
		PropertyType:   get("property_type"),
		Distance:       get("distance_from_campus"),
		ExistingImages: form.Value["existing_images"],
	}
	if len(in.Amenities) == 1 && strings.Contains(in.Amenities[0], ",") {
		in.Amenities = strings.Split(in.Amenities[0], ",")
	}
	if in.RoomTypes, err = parseRoomTypes(get("room_types")); err != nil {
		return in, nil, nil, err
	}

	var (
		uploads []service.Upload
		opened  openedFiles
	)
	for _, fh := range form.File["images"] {
		if fh.Size > h.MaxUploadBytes {
			opened.Close()
			return in, nil, nil, fmt.Errorf("image %s is larger than %d bytes", fh.Filename, h.MaxUploadBytes)
		}
		ctype := fh.Header.Get(echo.HeaderContentType)
		if ctype != "" && !strings.HasPrefix(ctype, "image/") {
			opened.Close()
			return in, nil, nil, fmt.Errorf("%s is not an image", fh.Filename)
		}
		f, err := fh.Open()
		if err != nil {
			opened.Close()
			return in, nil, nil, fmt.Errorf("could not read %s", fh.Filename)
		}
		opened = append(opened, f)
		uploads = append(uploads, service.Upload{
			Filename:    fh.Filename,
			ContentType: ctype,
			Body:        io.LimitReader(f, h.MaxUploadBytes),
		})
	}
	return in, uploads, opened, nil
}

// CreateProperty handles POST /v1/landlord/properties.
func (h *LandlordHandler) CreateProperty(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return respondError(c, err)
	}
	in, files, opened, err := h.parsePropertyForm(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	defer opened.Close()

	ctx, cancel := requestCtx(c)
	defer cancel()
	p, err := h.Props.Create(ctx, uid, in, files)
	if err != nil {
		return respondError(c, err)
	}
	h.purge(c)
	return c.JSON(http.StatusCreated, p)
}

// UpdateProperty handles PUT /v1/landlord/properties/:id.
func (h *LandlordHandler) UpdateProperty(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return respondError(c, err)
	}
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid property id")
	}
	in, files, opened, err := h.parsePropertyForm(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	defer opened.Close()

	ctx, cancel := requestCtx(c)
	defer cancel()
	p, err := h.Props.Update(ctx, uid, id, in, files)
	if err != nil {
		return respondError(c, err)
	}
	h.purge(c)
	return c.JSON(http.StatusOK, p)
}

// EditProperty handles GET /v1/landlord/properties/:id/edit.
func (h *LandlordHandler) EditProperty(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return respondError(c, err)
	}
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid property id")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	form, err := h.Props.EditForm(ctx, uid, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, form)
}

// DeleteProperty handles DELETE /v1/landlord/properties/:id.
func (h *LandlordHandler) DeleteProperty(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return respondError(c, err)
	}
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid property id")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	if err := h.Props.Delete(ctx, uid, id); err != nil {
		return respondError(c, err)
	}
	h.purge(c)
	return c.NoContent(http.StatusNoContent)
}

// ListProperties handles GET /v1/landlord/properties.
func (h *LandlordHandler) ListProperties(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	items, err := h.Props.ListForLandlord(ctx, uid)
	if err != nil {
		return respondError(c, err)
	}
	if items == nil {
		items = []service.Listing{}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
