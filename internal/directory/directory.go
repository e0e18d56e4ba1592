package directory

import (
	"Paddock/internal/api/config"
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
)

// Profile 客户档案展示身份 (只读，归属方在档案子系统)
type Profile struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

// Vehicle 车辆目录条目 (只读，归属方在车库子系统)
type Vehicle struct {
	ID    string `json:"id"`
	Year  int    `json:"year"`
	Make  string `json:"make"`
	Model string `json:"model"`
}

// Label 例如 "2021 Porsche 911"
func (v *Vehicle) Label() string {
	return fmt.Sprintf("%d %s %s", v.Year, v.Make, v.Model)
}

type ProfileDirectory interface {
	Resolve(ctx context.Context, id string) (*Profile, error)
}

type VehicleCatalog interface {
	Resolve(ctx context.Context, id string) (*Vehicle, error)
}

func newClient(cfg config.DirectoryConfig) *resty.Client {
	return resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(time.Duration(cfg.Timeout) * time.Second)
}

type httpProfileDirectory struct {
	client *resty.Client
}

func NewProfileDirectory(cfg config.DirectoryConfig) ProfileDirectory {
	return &httpProfileDirectory{client: newClient(cfg)}
}

func (s *httpProfileDirectory) Resolve(ctx context.Context, id string) (*Profile, error) {
	var profile Profile
	resp, err := s.client.R().
		SetContext(ctx).
		SetResult(&profile).
		Get("/profiles/" + id)
	if err != nil {
		return nil, errors.Wrap(err, "resolve profile")
	}
	if resp.IsError() {
		return nil, errors.Errorf("profile directory responded %d for %s", resp.StatusCode(), id)
	}
	return &profile, nil
}

type httpVehicleCatalog struct {
	client *resty.Client
}

func NewVehicleCatalog(cfg config.DirectoryConfig) VehicleCatalog {
	return &httpVehicleCatalog{client: newClient(cfg)}
}

func (s *httpVehicleCatalog) Resolve(ctx context.Context, id string) (*Vehicle, error) {
	var vehicle Vehicle
	resp, err := s.client.R().
		SetContext(ctx).
		SetResult(&vehicle).
		Get("/vehicles/" + id)
	if err != nil {
		return nil, errors.Wrap(err, "resolve vehicle")
	}
	if resp.IsError() {
		return nil, errors.Errorf("vehicle catalog responded %d for %s", resp.StatusCode(), id)
	}
	return &vehicle, nil
}
