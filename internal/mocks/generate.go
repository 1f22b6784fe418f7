// Package mocks provides mock implementations for testing the state layer.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks
// for the port interfaces. To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	mockAuth := mocks.NewMockAuthAPI(ctrl)
//	mockAuth.EXPECT().GetProfile(gomock.Any(), gomock.Any()).Return(profile, nil)
package mocks

// Generate mock for the AuthAPI interface from internal/ports.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=authapi_mock.go github.com/marketgrove/storefront-state/internal/ports AuthAPI
