package dto

// PointDTO is a bare coordinate pair on the wire.
type PointDTO struct {
	Lat float64 `json:"lat" binding:"required"`
	Lng float64 `json:"lng" binding:"required"`
}

// AddressDTO is a coordinate plus its display label.
type AddressDTO struct {
	Lat     float64 `json:"lat" binding:"required"`
	Lng     float64 `json:"lng" binding:"required"`
	Address string  `json:"address" binding:"required"`
}

// EstimateFaresRequest asks for per-class estimates for one route.
type EstimateFaresRequest struct {
	Pickup  PointDTO `json:"pickup" binding:"required"`
	Dropoff PointDTO `json:"dropoff" binding:"required"`
}

// CreateRideRequest books a ride for a resolved route and vehicle class.
type CreateRideRequest struct {
	Pickup       AddressDTO `json:"pickup" binding:"required"`
	Dropoff      AddressDTO `json:"dropoff" binding:"required"`
	VehicleClass string     `json:"vehicle_class" binding:"required,oneof=bike car xl"`
}

// ErrorResponse is the error envelope.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
