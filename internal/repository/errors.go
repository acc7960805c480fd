package repository

import "errors"

// ErrDuplicateInvoiceNumber is returned by InvoiceRepository.Create when the
// unique index on invoice_number rejects the insert.
var ErrDuplicateInvoiceNumber = errors.New("invoice number already exists")

// ErrInsufficientStock is returned by OrderRepository.Create when a product
// cannot cover the ordered quantity.
var ErrInsufficientStock = errors.New("insufficient stock")
