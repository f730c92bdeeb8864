package entity

// PrimaryWarehouse es el almacén 1, piso de venta por convención. Se usa cuando no se indica almacén.
const PrimaryWarehouse = 1
