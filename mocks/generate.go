package mocks

//go:generate mockgen -destination=./mock_provider.go -package=mocks divcompiler/internal/provider Provider
