// Package repository define las entidades de dominio y las interfaces de
// persistencia del core de autenticación.
//
// Las implementaciones viven en internal/store (PostgreSQL) y en los fakes
// de test. Los services dependen solo de estas interfaces: el backend es
// intercambiable sin tocar la lógica de negocio.
package repository
