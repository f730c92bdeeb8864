package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

func TestReadBranches_DecodificaLatin1(t *testing.T) {
	src := "code,name,host,port,user,password,database,charset,active\n" +
		"cen,Sucursal Centro,10.0.0.5,3306,erp,clave,erp_cen,latin1,si\n" +
		"nte,Sucursal Monterrey Norte Ñ,10.0.0.6,3307,erp,clave,erp_nte\n"
	latin1, err := charmap.ISO8859_1.NewEncoder().String(src)
	require.NoError(t, err)

	got, err := readBranches(bytes.NewBufferString(latin1))
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "cen", got[0].Code)
	assert.Equal(t, 3306, got[0].Port)
	assert.Equal(t, "latin1", got[0].Charset)
	require.NotNil(t, got[0].Active)
	assert.True(t, *got[0].Active)

	assert.Equal(t, "Sucursal Monterrey Norte Ñ", got[1].Name)
	assert.Nil(t, got[1].Active)
}

func TestReadBranches_PuertoInvalido(t *testing.T) {
	_, err := readBranches(bytes.NewBufferString("cen,Centro,h,abc,u,p,db\n"))
	assert.Error(t, err)
}
